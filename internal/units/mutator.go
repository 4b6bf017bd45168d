package units

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/estatedesk-backend/internal/payments"
	"github.com/angelmondragon/estatedesk-backend/pkg/db/models"
)

// Transfer is everything written onto the unit when ownership changes hands.
type Transfer struct {
	Unit                        *models.Unit
	Buyer                       payments.Buyer
	Breakdown                   payments.Breakdown
	TaxExempt                   bool
	TaxExemptionURL             string
	BuyerIDImageURL             string
	ElectricityMeterTransferred bool
	DriverRoomTransferred       bool
	SoldAt                      time.Time
}

type Mutator struct {
	repo Repository
}

func NewMutator(repo Repository) (*Mutator, error) {
	if repo == nil {
		return nil, errors.New("units repository required")
	}
	return &Mutator{repo: repo}, nil
}

// MarkSold writes the buyer, payment and attachment fields and sets status sold,
// guarded on the status the unit had when it was loaded.
func (m *Mutator) MarkSold(ctx context.Context, t Transfer) error {
	if t.Unit == nil {
		return errors.New("unit is required")
	}
	return m.repo.MarkSold(ctx, t.Unit.ID, t.Unit.Status, Fields(t))
}

// Fields flattens a transfer into column updates. The current owner moves into
// the previous_owner_* shadow columns and unselected payment columns are nulled.
func Fields(t Transfer) map[string]any {
	cols := t.Breakdown.Columns()
	soldAt := t.SoldAt.UTC()

	fields := map[string]any{
		"previous_owner_name":           t.Unit.OwnerName,
		"previous_owner_phone":          t.Unit.OwnerPhone,
		"owner_name":                    t.Buyer.Name,
		"owner_phone":                   optional(t.Buyer.Phone),
		"tax_exempt":                    t.TaxExempt,
		"tax_exemption_url":             nil,
		"transfer_payment_methods":      cols.Methods,
		"transfer_cash_amount":          cols.CashAmount,
		"transfer_bank_name":            cols.TransferBankName,
		"transfer_amount":               cols.TransferAmount,
		"transfer_reference":            cols.TransferReference,
		"check_bank_name":               cols.CheckBankName,
		"check_number":                  cols.CheckNumber,
		"check_amount":                  cols.CheckAmount,
		"check_image_url":               cols.CheckImageURL,
		"buyer_id_image_url":            optional(t.BuyerIDImageURL),
		"electricity_meter_transferred": t.ElectricityMeterTransferred,
		"driver_room_transferred":       t.DriverRoomTransferred,
		"sold_at":                       soldAt,
		"updated_at":                    soldAt,
	}
	if t.TaxExempt {
		fields["tax_exemption_url"] = optional(t.TaxExemptionURL)
	}
	return fields
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
