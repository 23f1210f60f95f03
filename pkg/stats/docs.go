// Package stats aggregates the snapshots of a teams clusters into the counts shown on the
// dashboard.
package stats

import "github.com/google/uuid"

// swagger:response DashboardStats
type _ struct {
	// in: body
	Body DashboardStats
}

// swagger:parameters teamStats
type _ struct {
	// in: path
	// required: true
	TeamID uuid.UUID `json:"teamId"`

	// Number of most recent events to return. Defaults to 5, at most 100.
	// in: query
	RecentEvents int `json:"recentEvents"`
}
