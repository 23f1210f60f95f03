// Package event streams the cluster notifications of a team to the dashboard using server-sent
// events.
package event

import "github.com/google/uuid"

// swagger:response Stream
type _ struct {
	// in: body
	Body string
}

// swagger:parameters streamEvents
type _ struct {
	// in: path
	// required: true
	TeamID uuid.UUID `json:"teamId"`
}
