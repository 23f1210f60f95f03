package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Team domain object owning clusters
// swagger:model
type Team struct {
	ID          uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Name        string       `json:"name" gorm:"not null"`
	Memberships []Membership `json:"memberships,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (t *Team) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Membership grants a user a role within a team. The role is stored as its name, see
// permission.Role for the set of valid values.
// swagger:model
type Membership struct {
	TeamID    uuid.UUID `json:"teamId" gorm:"type:uuid;primaryKey"`
	UserID    uint      `json:"userId" gorm:"primaryKey"`
	Role      string    `json:"role" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
