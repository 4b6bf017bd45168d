package units

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/estatedesk-backend/pkg/db/models"
	"github.com/angelmondragon/estatedesk-backend/pkg/enums"
)

// ErrStateConflict means the unit left the expected status before the update landed.
var ErrStateConflict = errors.New("unit state conflict")

// Repository persists unit rows.
type Repository interface {
	FindByID(ctx context.Context, buildingID, unitID uuid.UUID) (*models.Unit, error)
	MarkSold(ctx context.Context, unitID uuid.UUID, expected enums.UnitStatus, fields map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a units repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, buildingID, unitID uuid.UUID) (*models.Unit, error) {
	var unit models.Unit
	err := r.db.WithContext(ctx).
		Where("id = ? AND building_id = ?", unitID, buildingID).
		First(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

// MarkSold applies fields and flips the unit to sold, but only while the row is
// still in the expected status. A miss returns ErrStateConflict.
func (r *repository) MarkSold(ctx context.Context, unitID uuid.UUID, expected enums.UnitStatus, fields map[string]any) error {
	updates := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		updates[k] = v
	}
	updates["status"] = enums.UnitStatusSold
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}

	res := r.db.WithContext(ctx).
		Model(&models.Unit{}).
		Where("id = ? AND status = ? AND status <> ?", unitID, expected, enums.UnitStatusSold).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStateConflict
	}
	return nil
}
