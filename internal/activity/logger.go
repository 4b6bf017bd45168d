package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/estatedesk-backend/pkg/db/models"
	"github.com/angelmondragon/estatedesk-backend/pkg/enums"
	"github.com/angelmondragon/estatedesk-backend/pkg/logger"
)

// Actor identifies who performed an action.
type Actor struct {
	ID          uuid.UUID
	DisplayName string
}

func (a Actor) name() string {
	if n := strings.TrimSpace(a.DisplayName); n != "" {
		return n
	}
	if a.ID != uuid.Nil {
		return a.ID.String()
	}
	return "unknown"
}

func (a Actor) idPtr() *uuid.UUID {
	if a.ID == uuid.Nil {
		return nil
	}
	id := a.ID
	return &id
}

// OwnershipTransfer describes a finished sale for the audit trail.
type OwnershipTransfer struct {
	Actor         Actor
	BuildingID    uuid.UUID
	BuildingName  string
	UnitID        uuid.UUID
	UnitNumber    string
	Floor         int
	BuyerName     string
	SaleID        uuid.UUID
	ReservationID *uuid.UUID
}

// Logger writes audit entries.
type Logger struct {
	repo Repository
	logg *logger.Logger
}

func NewLogger(repo Repository, logg *logger.Logger) (*Logger, error) {
	if repo == nil {
		return nil, errors.New("activity repository required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Logger{repo: repo, logg: logg}, nil
}

// OwnershipTransferred records the sale. Failures are logged and swallowed.
func (l *Logger) OwnershipTransferred(ctx context.Context, t OwnershipTransfer) {
	metadata := map[string]any{
		"building_id": t.BuildingID.String(),
		"unit_id":     t.UnitID.String(),
		"buyer_name":  t.BuyerName,
		"sale_id":     t.SaleID.String(),
	}
	if t.ReservationID != nil {
		metadata["reservation_id"] = t.ReservationID.String()
	}

	entry := &models.ActivityLog{
		ActorID:     t.Actor.idPtr(),
		ActorName:   t.Actor.name(),
		Action:      enums.ActivityActionOwnershipTransferred,
		Description: Describe(t),
		Metadata:    metadata,
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		ctx = l.logg.WithFields(ctx, map[string]any{
			"sale_id": t.SaleID.String(),
			"error":   err.Error(),
		})
		l.logg.Warn(ctx, "activity log write failed")
	}
}

// CompensationRequired records that a partially applied sale needs an operator.
func (l *Logger) CompensationRequired(ctx context.Context, actor Actor, description string, metadata map[string]any) error {
	return l.repo.Create(ctx, &models.ActivityLog{
		ActorID:     actor.idPtr(),
		ActorName:   actor.name(),
		Action:      enums.ActivityActionCompensationRequired,
		Description: description,
		Metadata:    metadata,
	})
}

// Describe renders the one-line summary stored with an ownership transfer.
func Describe(t OwnershipTransfer) string {
	building := strings.TrimSpace(t.BuildingName)
	if building == "" {
		building = t.BuildingID.String()
	}
	return fmt.Sprintf("Unit %s (floor %d) in %s transferred to %s", t.UnitNumber, t.Floor, building, t.BuyerName)
}
