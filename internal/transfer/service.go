package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/estatedesk-backend/internal/activity"
	"github.com/angelmondragon/estatedesk-backend/internal/attachments"
	"github.com/angelmondragon/estatedesk-backend/internal/payments"
	"github.com/angelmondragon/estatedesk-backend/internal/reservations"
	"github.com/angelmondragon/estatedesk-backend/internal/sales"
	"github.com/angelmondragon/estatedesk-backend/internal/units"
	"github.com/angelmondragon/estatedesk-backend/pkg/db"
	"github.com/angelmondragon/estatedesk-backend/pkg/db/models"
	"github.com/angelmondragon/estatedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estatedesk-backend/pkg/errors"
	"github.com/angelmondragon/estatedesk-backend/pkg/logger"
	"github.com/angelmondragon/estatedesk-backend/pkg/metrics"
)

const (
	ReasonMissingIdempotencyKey                = "MissingIdempotencyKey"
	ReasonDuplicateSubmission                  = "DuplicateSubmission"
	ReasonUnitAlreadySold                      = "UnitAlreadySold"
	ReasonUnitStateConflict                    = "UnitStateConflict"
	ReasonSaleRecordingFailedAfterUnitMutation = "SaleRecordingFailedAfterUnitMutation"
	ReasonReservationSettlementFailedAfterSale = "ReservationSettlementFailedAfterSale"
)

type buildingFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Building, error)
}

type unitFinder interface {
	FindByID(ctx context.Context, buildingID, unitID uuid.UUID) (*models.Unit, error)
}

type unitMutator interface {
	MarkSold(ctx context.Context, t units.Transfer) error
}

type depositResolver interface {
	Resolve(ctx context.Context, unitID uuid.UUID, d reservations.Decision) (reservations.Resolution, error)
}

type attachmentUploader interface {
	Upload(ctx context.Context, buildingID, unitID uuid.UUID, files []attachments.File, existing attachments.URLs) (attachments.URLs, error)
}

type saleRecorder interface {
	Record(ctx context.Context, rec sales.Record) (*models.Sale, error)
	Lookup(ctx context.Context, key string) (*models.Sale, error)
}

type reservationSettler interface {
	Settle(ctx context.Context, r reservations.Resolution, saleID uuid.UUID) error
}

type activityLogger interface {
	OwnershipTransferred(ctx context.Context, t activity.OwnershipTransfer)
}

// Identity resolves the signed-in actor.
type Identity interface {
	CurrentUser(ctx context.Context) (activity.Actor, error)
}

// Request is one sale submission.
type Request struct {
	BuildingID                  uuid.UUID
	UnitID                      uuid.UUID
	IdempotencyKey              string
	Buyer                       payments.Buyer
	Payment                     payments.Input
	CommissionAmount            int64
	TaxExempt                   bool
	ElectricityMeterTransferred bool
	DriverRoomTransferred       bool
	Deposit                     reservations.Decision
	SaleDate                    time.Time
	Files                       []attachments.File
}

type ServiceParams struct {
	Buildings    buildingFinder
	Units        unitFinder
	Mutator      unitMutator
	Resolver     depositResolver
	Uploader     attachmentUploader
	Recorder     saleRecorder
	Settler      reservationSettler
	Activity     activityLogger
	Identity     Identity
	Locker       Locker
	Compensation CompensationHook
	Metrics      *metrics.SaleMetrics
	Logger       *logger.Logger
	Now          func() time.Time
}

// Service runs the sale finalization saga.
type Service struct {
	buildings    buildingFinder
	units        unitFinder
	mutator      unitMutator
	resolver     depositResolver
	uploader     attachmentUploader
	recorder     saleRecorder
	settler      reservationSettler
	activity     activityLogger
	identity     Identity
	locker       Locker
	compensation CompensationHook
	metrics      *metrics.SaleMetrics
	logg         *logger.Logger
	now          func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Buildings == nil:
		return nil, errors.New("buildings repository required")
	case params.Units == nil:
		return nil, errors.New("units repository required")
	case params.Mutator == nil:
		return nil, errors.New("unit mutator required")
	case params.Resolver == nil:
		return nil, errors.New("deposit resolver required")
	case params.Uploader == nil:
		return nil, errors.New("attachment uploader required")
	case params.Recorder == nil:
		return nil, errors.New("sale recorder required")
	case params.Settler == nil:
		return nil, errors.New("reservation settler required")
	case params.Activity == nil:
		return nil, errors.New("activity logger required")
	case params.Identity == nil:
		return nil, errors.New("identity required")
	case params.Logger == nil:
		return nil, errors.New("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		buildings:    params.Buildings,
		units:        params.Units,
		mutator:      params.Mutator,
		resolver:     params.Resolver,
		uploader:     params.Uploader,
		recorder:     params.Recorder,
		settler:      params.Settler,
		activity:     params.Activity,
		identity:     params.Identity,
		locker:       params.Locker,
		compensation: params.Compensation,
		metrics:      params.Metrics,
		logg:         params.Logger,
		now:          now,
	}, nil
}

// validated is everything the mutation steps need once validation passed.
type validated struct {
	building   *models.Building
	unit       *models.Unit
	breakdown  payments.Breakdown
	buyer      payments.Buyer
	resolution reservations.Resolution
	key        string
}

// run tracks the state machine for one Finalize call.
type run struct {
	svc     *Service
	outcome Outcome
	started time.Time
}

func (r *run) advance(next State) {
	if !r.outcome.State.CanTransitionTo(next) {
		panic(fmt.Sprintf("transfer: illegal transition %s -> %s", r.outcome.State, next))
	}
	r.outcome.State = next
	r.started = r.svc.now()
}

func (r *run) finishStep(err error) {
	d := r.svc.now().Sub(r.started)
	r.outcome.Steps = append(r.outcome.Steps, StepResult{State: r.outcome.State, Duration: d, Err: err})
	r.svc.metrics.ObserveStep(r.outcome.State.String(), d)
}

func (r *run) skip(state State) {
	r.outcome.Steps = append(r.outcome.Steps, StepResult{State: state, Skipped: true})
}

func (r *run) fail(terminal State, err error) {
	r.finishStep(err)
	r.advance(terminal)
	r.outcome.Mutated = terminal.Mutated()
	r.outcome.Err = err
}

// Finalize converts a unit into a sold unit. It runs the steps in order and
// reports exactly one terminal state. Once the first upload starts the run no
// longer follows caller cancellation.
func (s *Service) Finalize(ctx context.Context, req Request) (Outcome, error) {
	r := &run{
		svc: s,
		outcome: Outcome{
			State:      StateValidating,
			BuildingID: req.BuildingID,
			UnitID:     req.UnitID,
			Mutated:    []string{},
		},
		started: s.now(),
	}
	ctx = s.logg.WithScope(ctx, logger.Scope{
		BuildingID: req.BuildingID.String(),
		UnitID:     req.UnitID.String(),
	})

	v, err := precheck(req)
	if err != nil {
		r.fail(StateRejectedAtValidation, err)
		return s.finish(ctx, r)
	}

	actor, err := s.identity.CurrentUser(ctx)
	if err != nil {
		r.fail(StateRejectedAtValidation, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "sign in to finalize a sale"))
		return s.finish(ctx, r)
	}
	r.outcome.Actor = actor

	if s.locker != nil {
		lease, err := s.locker.Acquire(ctx, req.UnitID)
		if err != nil {
			if errors.Is(err, ErrLockNotObtained) {
				r.fail(StateRejectedAtValidation, pkgerrors.New(pkgerrors.CodeConflict, "unit sale already in progress"))
			} else {
				r.fail(StateFailedBeforeMutation, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not lock unit"))
			}
			return s.finish(ctx, r)
		}
		defer func() {
			if relErr := lease.Release(context.WithoutCancel(ctx)); relErr != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", relErr.Error()), "failed to release unit sale lock")
			}
		}()
	}

	terminal, err := s.validate(ctx, req, &v)
	if err != nil {
		r.fail(terminal, err)
		return s.finish(ctx, r)
	}
	r.finishStep(nil)
	if v.resolution.Pending() {
		id := v.resolution.Reservation.ID
		r.outcome.ReservationID = &id
		r.outcome.Settlement = v.resolution.Settlement
	}

	ctx = context.WithoutCancel(ctx)

	r.advance(StateUploading)
	urls, err := s.uploader.Upload(ctx, req.BuildingID, req.UnitID, req.Files, existingURLs(v.unit))
	if err != nil {
		r.fail(StateFailedBeforeMutation, failure(pkgerrors.CodeDependency, err, "could not upload attachment", StateFailedBeforeMutation, ""))
		return s.finish(ctx, r)
	}
	r.outcome.Attachments = urls
	breakdown := v.breakdown.WithCheckImage(urls.Get(enums.AttachmentSlotCertifiedCheck))
	r.finishStep(nil)

	r.advance(StateMutatingUnit)
	soldAt := s.now().UTC()
	err = s.mutator.MarkSold(ctx, units.Transfer{
		Unit:                        v.unit,
		Buyer:                       v.buyer,
		Breakdown:                   breakdown,
		TaxExempt:                   req.TaxExempt,
		TaxExemptionURL:             urls.Get(enums.AttachmentSlotTaxExemption),
		BuyerIDImageURL:             urls.Get(enums.AttachmentSlotBuyerID),
		ElectricityMeterTransferred: req.ElectricityMeterTransferred,
		DriverRoomTransferred:       req.DriverRoomTransferred,
		SoldAt:                      soldAt,
	})
	if err != nil {
		if errors.Is(err, units.ErrStateConflict) {
			err = failure(pkgerrors.CodeStateConflict, err, "unit changed while the sale was being saved; nothing was written", StateFailedAtUnitMutation, ReasonUnitStateConflict)
		} else {
			err = failure(pkgerrors.CodeDependency, err, "could not update unit; nothing was written", StateFailedAtUnitMutation, "")
		}
		r.fail(StateFailedAtUnitMutation, err)
		return s.finish(ctx, r)
	}
	r.finishStep(nil)

	r.advance(StateRecordingSale)
	saleDate := req.SaleDate
	if saleDate.IsZero() {
		saleDate = soldAt
	}
	sale, err := s.recorder.Record(ctx, sales.Record{
		UnitID:           req.UnitID,
		BuildingID:       req.BuildingID,
		ReservationID:    r.outcome.ReservationID,
		Buyer:            v.buyer,
		Breakdown:        breakdown,
		CommissionAmount: req.CommissionAmount,
		SaleDate:         saleDate,
		IdempotencyKey:   v.key,
		CreatedBy:        actorID(actor),
	})
	if err != nil {
		r.fail(StateFailedAfterUnitMutation, partialCommit(err,
			"unit was marked sold but the sale could not be recorded; contact an administrator",
			StateFailedAfterUnitMutation, ReasonSaleRecordingFailedAfterUnitMutation, nil))
		return s.finish(ctx, r)
	}
	r.outcome.Sale = sale
	r.finishStep(nil)

	if v.resolution.Pending() {
		r.advance(StateSettlingReservation)
		if err := s.settler.Settle(ctx, v.resolution, sale.ID); err != nil {
			r.fail(StateFailedAfterSale, partialCommit(err,
				"sale was recorded but the reservation could not be closed; close it manually",
				StateFailedAfterSale, ReasonReservationSettlementFailedAfterSale, sale))
			return s.finish(ctx, r)
		}
		r.finishStep(nil)
	} else {
		r.skip(StateSettlingReservation)
	}

	r.advance(StateLoggingActivity)
	s.activity.OwnershipTransferred(ctx, activity.OwnershipTransfer{
		Actor:         actor,
		BuildingID:    v.building.ID,
		BuildingName:  v.building.Name,
		UnitID:        v.unit.ID,
		UnitNumber:    v.unit.UnitNumber,
		Floor:         v.unit.Floor,
		BuyerName:     v.buyer.Name,
		SaleID:        sale.ID,
		ReservationID: r.outcome.ReservationID,
	})
	r.finishStep(nil)

	r.advance(StateSucceeded)
	r.outcome.Mutated = succeededMutations(v.resolution.Pending())
	return s.finish(ctx, r)
}

// precheck runs the checks that need no store: idempotency key, payment,
// buyer and attachment names. A failure here means nothing was read or locked.
func precheck(req Request) (validated, error) {
	var (
		v   validated
		err error
	)
	v.key = strings.TrimSpace(req.IdempotencyKey)
	if v.key == "" {
		return v, pkgerrors.Invalid(ReasonMissingIdempotencyKey, "idempotency_key", "idempotency key is required")
	}
	v.breakdown, v.buyer, err = payments.Validate(req.Payment, req.Buyer)
	if err != nil {
		return v, err
	}
	if err := attachments.CheckFiles(req.Files); err != nil {
		return v, err
	}
	return v, nil
}

// validate loads what the mutation steps need and reports the terminal state
// to use when a lookup fails.
func (s *Service) validate(ctx context.Context, req Request, v *validated) (State, error) {
	existing, err := s.recorder.Lookup(ctx, v.key)
	if err != nil {
		return StateFailedBeforeMutation, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not check for an earlier submission")
	}
	if existing != nil {
		return StateRejectedAtValidation, pkgerrors.New(pkgerrors.CodeIdempotency, "this sale was already submitted").WithDetails(map[string]any{
			"reason":  ReasonDuplicateSubmission,
			"sale_id": existing.ID.String(),
		})
	}

	v.building, err = s.buildings.FindByID(ctx, req.BuildingID)
	if err != nil {
		if db.IsNotFound(err) {
			return StateRejectedAtValidation, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "building not found")
		}
		return StateFailedBeforeMutation, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not load building")
	}

	v.unit, err = s.units.FindByID(ctx, req.BuildingID, req.UnitID)
	if err != nil {
		if db.IsNotFound(err) {
			return StateRejectedAtValidation, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "unit not found")
		}
		return StateFailedBeforeMutation, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not load unit")
	}
	if v.unit.Status == enums.UnitStatusSold {
		return StateRejectedAtValidation, pkgerrors.New(pkgerrors.CodeStateConflict, "unit is already sold").WithDetails(map[string]any{
			"reason": ReasonUnitAlreadySold,
			"state":  StateRejectedAtValidation.String(),
		})
	}

	v.resolution, err = s.resolver.Resolve(ctx, req.UnitID, req.Deposit)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			return StateRejectedAtValidation, err
		}
		return StateFailedBeforeMutation, err
	}
	return "", nil
}

func (s *Service) finish(ctx context.Context, r *run) (Outcome, error) {
	out := r.outcome
	s.metrics.IncOutcome(out.State.String())

	scope := logger.Scope{State: out.State.String()}
	if out.Sale != nil {
		scope.SaleID = out.Sale.ID.String()
	}
	ctx = s.logg.WithScope(ctx, scope)

	if out.State.NeedsCompensation() {
		s.metrics.IncCompensation(out.State.String())
		logged := out.Err
		if s.compensation != nil {
			logged = multierr.Append(logged, s.compensation.Compensate(ctx, out))
		}
		s.logg.Error(ctx, "unit sale partially applied", logged)
		return out, out.Err
	}

	switch {
	case out.State == StateSucceeded:
		s.logg.Info(ctx, "unit sale finalized")
	case out.State == StateRejectedAtValidation:
		s.logg.Warn(s.logg.WithField(ctx, "error", out.Err.Error()), "unit sale rejected")
	default:
		s.logg.Error(ctx, "unit sale failed", out.Err)
	}
	return out, out.Err
}

// failure wraps err and tags it with the terminal state.
func failure(code pkgerrors.Code, err error, msg string, state State, reason string) error {
	details := map[string]any{
		"state":   state.String(),
		"mutated": state.Mutated(),
	}
	if reason != "" {
		details["reason"] = reason
	}
	return pkgerrors.Wrap(code, err, msg).WithDetails(details)
}

func partialCommit(err error, msg string, state State, reason string, sale *models.Sale) error {
	details := map[string]any{
		"reason":  reason,
		"state":   state.String(),
		"mutated": state.Mutated(),
	}
	if sale != nil {
		details["sale_id"] = sale.ID.String()
	}
	return pkgerrors.Wrap(pkgerrors.CodePartialCommit, err, msg).WithDetails(details)
}

func existingURLs(u *models.Unit) attachments.URLs {
	urls := attachments.URLs{}
	if u.TaxExemptionURL != nil {
		urls[enums.AttachmentSlotTaxExemption] = *u.TaxExemptionURL
	}
	if u.CheckImageURL != nil {
		urls[enums.AttachmentSlotCertifiedCheck] = *u.CheckImageURL
	}
	if u.BuyerIDImageURL != nil {
		urls[enums.AttachmentSlotBuyerID] = *u.BuyerIDImageURL
	}
	return urls
}

func actorID(a activity.Actor) *uuid.UUID {
	if a.ID == uuid.Nil {
		return nil
	}
	id := a.ID
	return &id
}

func succeededMutations(settled bool) []string {
	if settled {
		return []string{"units", "sales", "reservations"}
	}
	return []string{"units", "sales"}
}
