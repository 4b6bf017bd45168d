package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/estatedesk-backend/pkg/enums"
)

// Sale is the immutable record of a completed unit transaction.
type Sale struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UnitID            uuid.UUID           `gorm:"column:unit_id;type:uuid;not null"`
	BuildingID        uuid.UUID           `gorm:"column:building_id;type:uuid;not null"`
	ReservationID     *uuid.UUID          `gorm:"column:reservation_id;type:uuid"`
	BuyerName         string              `gorm:"column:buyer_name;not null"`
	BuyerPhone        *string             `gorm:"column:buyer_phone"`
	SaleDate          time.Time           `gorm:"column:sale_date;not null"`
	SalePrice         int64               `gorm:"column:sale_price;not null"`
	CommissionAmount  int64               `gorm:"column:commission_amount;not null;default:0"`
	PaymentMethod     string              `gorm:"column:payment_method;not null"`
	CashAmount        *int64              `gorm:"column:cash_amount"`
	TransferBankName  *string             `gorm:"column:transfer_bank_name"`
	TransferAmount    *int64              `gorm:"column:transfer_amount"`
	TransferReference *string             `gorm:"column:transfer_reference"`
	CheckBankName     *string             `gorm:"column:check_bank_name"`
	CheckNumber       *string             `gorm:"column:check_number"`
	CheckAmount       *int64              `gorm:"column:check_amount"`
	CheckImageURL     *string             `gorm:"column:check_image_url"`
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'paid'"`
	IdempotencyKey    string              `gorm:"column:idempotency_key;not null;uniqueIndex:ux_sales_idempotency_key"`
	CreatedBy         *uuid.UUID          `gorm:"column:created_by;type:uuid"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
}
