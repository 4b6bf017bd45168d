package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/estatedesk-backend/pkg/enums"
)

// Reservation is an earlier hold on a unit, optionally backed by a deposit.
type Reservation struct {
	ID                    uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	UnitID                uuid.UUID                `gorm:"column:unit_id;type:uuid;not null"`
	BuildingID            uuid.UUID                `gorm:"column:building_id;type:uuid;not null"`
	CustomerName          string                   `gorm:"column:customer_name;not null"`
	CustomerPhone         *string                  `gorm:"column:customer_phone"`
	CustomerAccount       *string                  `gorm:"column:customer_account"`
	MarketerName          *string                  `gorm:"column:marketer_name"`
	DepositAmount         int64                    `gorm:"column:deposit_amount;not null;default:0"`
	ReceiptNumber         *string                  `gorm:"column:receipt_number"`
	Status                enums.ReservationStatus  `gorm:"column:status;type:text;not null;default:'active'"`
	SaleID                *uuid.UUID               `gorm:"column:sale_id;type:uuid"`
	DepositSettlementType *enums.DepositSettlement `gorm:"column:deposit_settlement_type;type:text"`
	CompletedAt           *time.Time               `gorm:"column:completed_at"`
	CreatedAt             time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
