package reservations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type settler interface {
	Settle(ctx context.Context, reservationID uuid.UUID, s Settlement) error
}

// Settler closes the reservation resolved for a sale.
type Settler struct {
	repo settler
	now  func() time.Time
}

func NewSettler(repo settler) (*Settler, error) {
	if repo == nil {
		return nil, errors.New("reservations repository required")
	}
	return &Settler{repo: repo, now: time.Now}, nil
}

// Settle marks the resolved reservation completed and links it to saleID.
// It is a no-op when the resolution has no reservation.
func (s *Settler) Settle(ctx context.Context, r Resolution, saleID uuid.UUID) error {
	if !r.Pending() {
		return nil
	}
	if saleID == uuid.Nil {
		return errors.New("sale id is required to settle a reservation")
	}
	return s.repo.Settle(ctx, r.Reservation.ID, Settlement{
		SaleID:        saleID,
		Type:          r.Settlement,
		RefundAccount: r.RefundAccount,
		CompletedAt:   s.now(),
	})
}
