// Package team manages teams and the roles of their members.
package team

import (
	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/pkg/model"
)

// swagger:response Team
type _ struct {
	// in: body
	Body model.Team
}

// swagger:response Membership
type _ struct {
	// in: body
	Body model.Membership
}

// swagger:parameters teamCreate
type _ struct {
	// in: body
	// required: true
	Body CreateTeamRequest
}

// swagger:parameters findTeamById
type _ struct {
	// in: path
	// required: true
	TeamID uuid.UUID `json:"teamId"`
}

// swagger:parameters teamAddMember teamChangeRole
type _ struct {
	// in: path
	// required: true
	TeamID uuid.UUID `json:"teamId"`

	// in: path
	// required: true
	UserID uint `json:"userId"`

	// in: body
	// required: true
	Body MembershipRequest
}
