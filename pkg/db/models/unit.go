package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/estatedesk-backend/pkg/enums"
)

// Unit is a sellable inventory item inside a building. The transfer_* and
// check_* columns mirror the payment breakdown of the sale that closed it.
type Unit struct {
	ID                          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	BuildingID                  uuid.UUID        `gorm:"column:building_id;type:uuid;not null"`
	UnitNumber                  string           `gorm:"column:unit_number;not null"`
	Floor                       int              `gorm:"column:floor;not null;default:0"`
	Status                      enums.UnitStatus `gorm:"column:status;type:text;not null;default:'available'"`
	Price                       *int64           `gorm:"column:price"`
	OwnerName                   *string          `gorm:"column:owner_name"`
	OwnerPhone                  *string          `gorm:"column:owner_phone"`
	PreviousOwnerName           *string          `gorm:"column:previous_owner_name"`
	PreviousOwnerPhone          *string          `gorm:"column:previous_owner_phone"`
	TaxExempt                   bool             `gorm:"column:tax_exempt;not null;default:false"`
	TaxExemptionURL             *string          `gorm:"column:tax_exemption_url"`
	TransferPaymentMethods      *string          `gorm:"column:transfer_payment_methods"`
	TransferCashAmount          *int64           `gorm:"column:transfer_cash_amount"`
	TransferBankName            *string          `gorm:"column:transfer_bank_name"`
	TransferAmount              *int64           `gorm:"column:transfer_amount"`
	TransferReference           *string          `gorm:"column:transfer_reference"`
	CheckBankName               *string          `gorm:"column:check_bank_name"`
	CheckNumber                 *string          `gorm:"column:check_number"`
	CheckAmount                 *int64           `gorm:"column:check_amount"`
	CheckImageURL               *string          `gorm:"column:check_image_url"`
	BuyerIDImageURL             *string          `gorm:"column:buyer_id_image_url"`
	ElectricityMeterTransferred bool             `gorm:"column:electricity_meter_transferred;not null;default:false"`
	DriverRoomTransferred       bool             `gorm:"column:driver_room_transferred;not null;default:false"`
	SoldAt                      *time.Time       `gorm:"column:sold_at"`
	CreatedAt                   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
