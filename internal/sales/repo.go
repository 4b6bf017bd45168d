package sales

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/estatedesk-backend/pkg/db"
	"github.com/angelmondragon/estatedesk-backend/pkg/db/models"
)

const (
	idempotencyConstraint = "ux_sales_idempotency_key"
	// SQLite reports the column rather than the index name.
	idempotencyColumn = "sales.idempotency_key"
)

// ErrDuplicateSubmission means a sale already exists for the submission's idempotency key.
var ErrDuplicateSubmission = errors.New("duplicate sale submission")

// Repository persists sale rows. Sales are insert-only.
type Repository interface {
	Create(ctx context.Context, sale *models.Sale) (*models.Sale, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Sale, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a sales repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, sale *models.Sale) (*models.Sale, error) {
	if err := r.db.WithContext(ctx).Create(sale).Error; err != nil {
		if isDuplicateSubmission(err) {
			return nil, ErrDuplicateSubmission
		}
		return nil, err
	}
	return sale, nil
}

func isDuplicateSubmission(err error) bool {
	return db.IsUniqueViolation(err, idempotencyConstraint) || db.IsUniqueViolation(err, idempotencyColumn)
}

// FindByIdempotencyKey returns the sale recorded for key, or nil.
func (r *repository) FindByIdempotencyKey(ctx context.Context, key string) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&sale).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &sale, nil
}
