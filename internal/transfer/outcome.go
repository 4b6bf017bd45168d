package transfer

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/estatedesk-backend/internal/activity"
	"github.com/angelmondragon/estatedesk-backend/internal/attachments"
	"github.com/angelmondragon/estatedesk-backend/pkg/db/models"
	"github.com/angelmondragon/estatedesk-backend/pkg/enums"
)

// StepResult records how one step ended.
type StepResult struct {
	State    State
	Skipped  bool
	Duration time.Duration
	Err      error
}

// Outcome is the single report of a finalization run.
type Outcome struct {
	State         State
	Actor         activity.Actor
	BuildingID    uuid.UUID
	UnitID        uuid.UUID
	Sale          *models.Sale
	ReservationID *uuid.UUID
	Settlement    enums.DepositSettlement
	Attachments   attachments.URLs
	Mutated       []string
	Steps         []StepResult
	Err           error
}

// SaleID returns the recorded sale id, or uuid.Nil.
func (o Outcome) SaleID() uuid.UUID {
	if o.Sale == nil {
		return uuid.Nil
	}
	return o.Sale.ID
}

func (o Outcome) Succeeded() bool {
	return o.State == StateSucceeded
}

// Step returns the result recorded for state.
func (o Outcome) Step(state State) (StepResult, bool) {
	for _, step := range o.Steps {
		if step.State == state {
			return step, true
		}
	}
	return StepResult{}, false
}
