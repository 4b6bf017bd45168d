package reservations

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/estatedesk-backend/pkg/db/models"
	"github.com/angelmondragon/estatedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estatedesk-backend/pkg/errors"
)

const (
	ReasonDepositDecisionRequired = "DepositDecisionRequired"
	ReasonMissingRefundAccount    = "MissingRefundAccount"
)

// Decision is the caller's answer to "what happens to the deposit".
type Decision struct {
	Settlement    string
	RefundAccount string
}

// Resolution is the reservation the sale must reconcile, if any, with the
// settlement to apply. Reservation is nil when nothing needs reconciling.
type Resolution struct {
	Reservation   *models.Reservation
	Settlement    enums.DepositSettlement
	RefundAccount string
}

func (r Resolution) Pending() bool {
	return r.Reservation != nil
}

type finder interface {
	FindActiveWithDeposit(ctx context.Context, unitID uuid.UUID) (*models.Reservation, error)
}

type Resolver struct {
	repo finder
}

func NewResolver(repo finder) (*Resolver, error) {
	if repo == nil {
		return nil, errors.New("reservations repository required")
	}
	return &Resolver{repo: repo}, nil
}

// Preview returns the deposit-bearing reservation the next sale would settle.
func (r *Resolver) Preview(ctx context.Context, unitID uuid.UUID) (*models.Reservation, error) {
	res, err := r.repo.FindActiveWithDeposit(ctx, unitID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not load reservation")
	}
	return res, nil
}

// Resolve finds the reservation to reconcile and checks the caller's decision
// against it. A refund without an explicit account falls back to the account
// stored on the reservation.
func (r *Resolver) Resolve(ctx context.Context, unitID uuid.UUID, d Decision) (Resolution, error) {
	res, err := r.Preview(ctx, unitID)
	if err != nil {
		return Resolution{}, err
	}
	if res == nil {
		return Resolution{}, nil
	}
	return Decide(res, d)
}

// Decide applies the settlement rules to a known reservation.
func Decide(res *models.Reservation, d Decision) (Resolution, error) {
	raw := strings.ToLower(strings.TrimSpace(d.Settlement))
	if raw == "" {
		return Resolution{}, pkgerrors.Invalid(ReasonDepositDecisionRequired, "deposit_settlement", "choose whether the deposit is included or refunded")
	}
	settlement, err := enums.ParseDepositSettlement(raw)
	if err != nil {
		return Resolution{}, pkgerrors.Invalid(ReasonDepositDecisionRequired, "deposit_settlement", "deposit settlement must be included or refund")
	}

	out := Resolution{Reservation: res, Settlement: settlement}
	if settlement != enums.DepositSettlementRefund {
		return out, nil
	}

	account := strings.TrimSpace(d.RefundAccount)
	if account == "" && res.CustomerAccount != nil {
		account = strings.TrimSpace(*res.CustomerAccount)
	}
	if account == "" {
		return Resolution{}, pkgerrors.Invalid(ReasonMissingRefundAccount, "refund_account", "refund account is required")
	}
	out.RefundAccount = account
	return out, nil
}
