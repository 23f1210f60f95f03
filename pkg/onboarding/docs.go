// Package onboarding implements how clusters join a team. Starting an onboarding issues a single
// use install token. The installer redeems it from within the cluster, which creates the cluster
// and returns the manifest of its agent. Until then no cluster exists.
package onboarding

import "github.com/google/uuid"

// swagger:response StartResult
type _ struct {
	// in: body
	Body StartResult
}

// swagger:response RedeemResult
type _ struct {
	// in: body
	Body RedeemResult
}

// swagger:response OnboardingStatus
type _ struct {
	// in: body
	Body Status
}

// swagger:parameters onboardingStart
type _ struct {
	// in: path
	// required: true
	TeamID uuid.UUID `json:"teamId"`

	// in: body
	// required: true
	Body StartOnboardingRequest
}

// swagger:parameters onboardingStatus onboardingCancel
type _ struct {
	// in: path
	// required: true
	TeamID uuid.UUID `json:"teamId"`

	// in: path
	// required: true
	ID uuid.UUID `json:"id"`
}

// swagger:parameters installCallback
type _ struct {
	// in: path
	// required: true
	Token string `json:"token"`
}
