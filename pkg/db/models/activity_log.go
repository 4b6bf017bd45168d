package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/estatedesk-backend/pkg/enums"
)

// ActivityLog is an append-only audit row.
type ActivityLog struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	ActorID     *uuid.UUID           `gorm:"column:actor_id;type:uuid"`
	ActorName   string               `gorm:"column:actor_name;not null"`
	Action      enums.ActivityAction `gorm:"column:action;type:text;not null"`
	Description string               `gorm:"column:description;not null"`
	Metadata    map[string]any       `gorm:"column:metadata;type:jsonb;serializer:json"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
}
