package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConnectionStatus string

const (
	ConnectionStatusConnected    ConnectionStatus = "connected"
	ConnectionStatusDisconnected ConnectionStatus = "disconnected"
	ConnectionStatusError        ConnectionStatus = "error"
)

// Cluster is a Kubernetes cluster whose agent has called back at least once. Clusters are only
// ever created by redeeming a PendingOnboarding.
// swagger:model
type Cluster struct {
	// required: true
	ID uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	// required: true
	CreatedAt time.Time `json:"createdAt"`
	// required: true
	UpdatedAt time.Time `json:"updatedAt"`
	// required: true
	TeamID uuid.UUID `json:"teamId" gorm:"type:uuid;index;not null"`
	Team   Team      `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	// required: true
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description"`
	AgentToken  string `json:"-" gorm:"not null"`
	// required: true
	ConnectionStatus ConnectionStatus `json:"connectionStatus" gorm:"not null;default:connected"`
	LastSeenAt       *time.Time       `json:"lastSeenAt"`
	// required: true
	OnboardingID       uuid.UUID `json:"onboardingId" gorm:"type:uuid;uniqueIndex;not null"`
	InstallTokenDigest string    `json:"-" gorm:"uniqueIndex;not null"`
	CreatedBy          uint      `json:"createdBy"`
}

func (c *Cluster) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
