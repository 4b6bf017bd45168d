package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/estatedesk-backend/internal/activity"
	"github.com/angelmondragon/estatedesk-backend/pkg/logger"
)

// CompensationHook is told about runs that stopped after a write landed.
type CompensationHook interface {
	Compensate(ctx context.Context, outcome Outcome) error
}

// CompensationFunc adapts a function to CompensationHook.
type CompensationFunc func(ctx context.Context, outcome Outcome) error

func (f CompensationFunc) Compensate(ctx context.Context, outcome Outcome) error {
	return f(ctx, outcome)
}

type compensationRecorder interface {
	CompensationRequired(ctx context.Context, actor activity.Actor, description string, metadata map[string]any) error
}

// ActivityCompensation flags the run in the activity log and logs it at error
// level so an operator can reconcile by hand.
type ActivityCompensation struct {
	recorder compensationRecorder
	logg     *logger.Logger
}

func NewActivityCompensation(recorder compensationRecorder, logg *logger.Logger) (*ActivityCompensation, error) {
	if recorder == nil {
		return nil, errors.New("activity recorder required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &ActivityCompensation{recorder: recorder, logg: logg}, nil
}

func (c *ActivityCompensation) Compensate(ctx context.Context, outcome Outcome) error {
	ctx = c.logg.WithField(ctx, "compensation", "activity_log")
	c.logg.Error(ctx, "unit sale requires manual reconciliation", outcome.Err)
	return c.recorder.CompensationRequired(ctx, outcome.Actor, DescribeCompensation(outcome), compensationMetadata(outcome))
}

// DescribeCompensation renders the activity line for a partially applied sale.
func DescribeCompensation(o Outcome) string {
	written := strings.Join(o.Mutated, ", ")
	if written == "" {
		written = "nothing"
	}
	return fmt.Sprintf("Sale of unit %s stopped at %s after writing %s", o.UnitID, o.State, written)
}

func compensationMetadata(o Outcome) map[string]any {
	meta := map[string]any{
		"state":       o.State.String(),
		"building_id": o.BuildingID.String(),
		"unit_id":     o.UnitID.String(),
		"mutated":     o.Mutated,
	}
	if o.Sale != nil {
		meta["sale_id"] = o.Sale.ID.String()
	}
	if o.ReservationID != nil {
		meta["reservation_id"] = o.ReservationID.String()
	}
	if o.Err != nil {
		meta["error"] = o.Err.Error()
	}
	return meta
}
