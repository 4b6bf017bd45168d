package reservations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/estatedesk-backend/pkg/db/models"
	"github.com/angelmondragon/estatedesk-backend/pkg/enums"
)

// ErrAlreadyCompleted means the reservation was settled by an earlier sale.
var ErrAlreadyCompleted = errors.New("reservation already completed")

// Settlement is what gets stamped on a reservation when its sale closes.
type Settlement struct {
	SaleID        uuid.UUID
	Type          enums.DepositSettlement
	RefundAccount string
	CompletedAt   time.Time
}

// Repository persists reservation rows.
type Repository interface {
	FindActiveWithDeposit(ctx context.Context, unitID uuid.UUID) (*models.Reservation, error)
	Settle(ctx context.Context, reservationID uuid.UUID, s Settlement) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reservations repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// FindActiveWithDeposit returns the newest open reservation on the unit that
// holds a deposit, or nil when there is none.
func (r *repository) FindActiveWithDeposit(ctx context.Context, unitID uuid.UUID) (*models.Reservation, error) {
	var rows []models.Reservation
	err := r.db.WithContext(ctx).
		Where("unit_id = ? AND status IN ? AND deposit_amount > 0", unitID, enums.OpenReservationStatuses()).
		Order("created_at DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Settle completes the reservation once. A reservation that is already
// completed is left untouched and ErrAlreadyCompleted is returned.
func (r *repository) Settle(ctx context.Context, reservationID uuid.UUID, s Settlement) error {
	completedAt := s.CompletedAt.UTC()
	updates := map[string]any{
		"status":                  enums.ReservationStatusCompleted,
		"completed_at":            completedAt,
		"sale_id":                 s.SaleID,
		"deposit_settlement_type": s.Type,
		"updated_at":              completedAt,
	}
	if s.Type == enums.DepositSettlementRefund {
		updates["customer_account"] = s.RefundAccount
	}

	res := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ? AND status <> ?", reservationID, enums.ReservationStatusCompleted).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyCompleted
	}
	return nil
}
