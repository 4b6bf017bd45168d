package transfer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/estatedesk-backend/internal/activity"
	"github.com/angelmondragon/estatedesk-backend/pkg/db/models"
	"github.com/angelmondragon/estatedesk-backend/pkg/logger"
)

type recordedCompensation struct {
	actor       activity.Actor
	description string
	metadata    map[string]any
}

type fakeCompensationRecorder struct {
	calls []recordedCompensation
	err   error
}

func (f *fakeCompensationRecorder) CompensationRequired(_ context.Context, actor activity.Actor, description string, metadata map[string]any) error {
	f.calls = append(f.calls, recordedCompensation{actor: actor, description: description, metadata: metadata})
	return f.err
}

func TestActivityCompensationRecordsOutcome(t *testing.T) {
	rec := &fakeCompensationRecorder{}
	hook, err := NewActivityCompensation(rec, logger.Nop())
	if err != nil {
		t.Fatalf("NewActivityCompensation: %v", err)
	}
	reservationID := uuid.New()
	sale := &models.Sale{ID: uuid.New()}
	out := Outcome{
		State:         StateFailedAfterSale,
		Actor:         activity.Actor{DisplayName: "Nadia Agent"},
		UnitID:        uuid.New(),
		Sale:          sale,
		ReservationID: &reservationID,
		Mutated:       StateFailedAfterSale.Mutated(),
		Err:           errors.New("reservation store down"),
	}

	if err := hook.Compensate(context.Background(), out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("expected one entry, got %d", len(rec.calls))
	}
	got := rec.calls[0]
	if got.metadata["sale_id"] != sale.ID.String() || got.metadata["reservation_id"] != reservationID.String() {
		t.Fatalf("unexpected metadata %v", got.metadata)
	}
	if got.metadata["error"] != "reservation store down" {
		t.Fatalf("expected error in metadata, got %v", got.metadata["error"])
	}
	if !strings.Contains(got.description, "failed_after_sale") || !strings.Contains(got.description, "units, sales") {
		t.Fatalf("unexpected description %q", got.description)
	}
}

func TestActivityCompensationReturnsStoreError(t *testing.T) {
	rec := &fakeCompensationRecorder{err: errors.New("insert failed")}
	hook, _ := NewActivityCompensation(rec, logger.Nop())
	if err := hook.Compensate(context.Background(), Outcome{State: StateFailedAfterUnitMutation}); err == nil {
		t.Fatal("expected store error")
	}
}

func TestNewActivityCompensationValidates(t *testing.T) {
	if _, err := NewActivityCompensation(nil, logger.Nop()); err == nil {
		t.Fatal("expected recorder error")
	}
	if _, err := NewActivityCompensation(&fakeCompensationRecorder{}, nil); err == nil {
		t.Fatal("expected logger error")
	}
}
