package sales

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/estatedesk-backend/internal/payments"
	"github.com/angelmondragon/estatedesk-backend/pkg/db/models"
	"github.com/angelmondragon/estatedesk-backend/pkg/enums"
)

// Record is the input for one sale row.
type Record struct {
	UnitID           uuid.UUID
	BuildingID       uuid.UUID
	ReservationID    *uuid.UUID
	Buyer            payments.Buyer
	Breakdown        payments.Breakdown
	CommissionAmount int64
	SaleDate         time.Time
	IdempotencyKey   string
	CreatedBy        *uuid.UUID
}

type Recorder struct {
	repo Repository
}

func NewRecorder(repo Repository) (*Recorder, error) {
	if repo == nil {
		return nil, errors.New("sales repository required")
	}
	return &Recorder{repo: repo}, nil
}

// Record inserts the sale. The price is the breakdown total, never the unit's
// advisory price.
func (r *Recorder) Record(ctx context.Context, rec Record) (*models.Sale, error) {
	key := strings.TrimSpace(rec.IdempotencyKey)
	if key == "" {
		return nil, errors.New("idempotency key is required")
	}
	if rec.Breakdown.IsEmpty() {
		return nil, errors.New("payment breakdown is empty")
	}
	return r.repo.Create(ctx, Build(rec))
}

// Lookup returns the sale already recorded for key, or nil.
func (r *Recorder) Lookup(ctx context.Context, key string) (*models.Sale, error) {
	return r.repo.FindByIdempotencyKey(ctx, strings.TrimSpace(key))
}

// Build maps a record onto a sale row without touching the store.
func Build(rec Record) *models.Sale {
	cols := rec.Breakdown.Columns()
	sale := &models.Sale{
		UnitID:            rec.UnitID,
		BuildingID:        rec.BuildingID,
		ReservationID:     rec.ReservationID,
		BuyerName:         rec.Buyer.Name,
		SaleDate:          rec.SaleDate.UTC(),
		SalePrice:         rec.Breakdown.Total(),
		CommissionAmount:  rec.CommissionAmount,
		PaymentMethod:     cols.Methods,
		CashAmount:        cols.CashAmount,
		TransferBankName:  cols.TransferBankName,
		TransferAmount:    cols.TransferAmount,
		TransferReference: cols.TransferReference,
		CheckBankName:     cols.CheckBankName,
		CheckNumber:       cols.CheckNumber,
		CheckAmount:       cols.CheckAmount,
		CheckImageURL:     cols.CheckImageURL,
		PaymentStatus:     enums.PaymentStatusPaid,
		IdempotencyKey:    strings.TrimSpace(rec.IdempotencyKey),
		CreatedBy:         rec.CreatedBy,
	}
	if rec.Buyer.Phone != "" {
		phone := rec.Buyer.Phone
		sale.BuyerPhone = &phone
	}
	return sale
}
