package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// All lists every model owned by the sale workflow, in dependency order.
func All() []any {
	return []any{&Building{}, &Unit{}, &Reservation{}, &Sale{}, &ActivityLog{}}
}

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (b *Building) BeforeCreate(*gorm.DB) error {
	assignID(&b.ID)
	return nil
}

func (u *Unit) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}

func (r *Reservation) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}

func (s *Sale) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

func (a *ActivityLog) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}
