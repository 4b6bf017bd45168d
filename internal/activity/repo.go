package activity

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/estatedesk-backend/pkg/db/models"
)

// Repository appends audit rows.
type Repository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an activity log repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
