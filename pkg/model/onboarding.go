package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PendingOnboarding is a provisional cluster registration awaiting the agent installer calling
// back with InstallToken.
// swagger:model
type PendingOnboarding struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt    time.Time `json:"createdAt"`
	TeamID       uuid.UUID `json:"teamId" gorm:"type:uuid;index;not null"`
	Team         Team      `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Name         string    `json:"name" gorm:"not null"`
	Description  string    `json:"description"`
	InstallToken string    `json:"-" gorm:"uniqueIndex;not null"`
	CreatedBy    uint      `json:"createdBy"`
	ExpiresAt    time.Time `json:"expiresAt" gorm:"index;not null"`
}

func (p *PendingOnboarding) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsExpired reports whether the onboarding can no longer be redeemed at time now.
func (p PendingOnboarding) IsExpired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

type OnboardingStatus string

const (
	OnboardingStatusPending   OnboardingStatus = "pending"
	OnboardingStatusConnected OnboardingStatus = "connected"
	OnboardingStatusExpired   OnboardingStatus = "expired"
)
