package buildings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/estatedesk-backend/pkg/db/models"
)

// Repository reads building rows.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Building, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a buildings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Building, error) {
	var building models.Building
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&building).Error; err != nil {
		return nil, err
	}
	return &building, nil
}
