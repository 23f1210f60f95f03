// Package snapshot ingests the inventories agents periodically collect from their clusters. Only
// the latest snapshot of a cluster is kept.
package snapshot

import (
	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/pkg/model"
)

// swagger:response Ack
type _ struct {
	// in: body
	Body Ack
}

// swagger:response ClusterSnapshot
type _ struct {
	// in: body
	Body model.ClusterSnapshot
}

// swagger:parameters snapshotIngest
type _ struct {
	// in: path
	// required: true
	ID uuid.UUID `json:"id"`

	// in: body
	// required: true
	Body model.SnapshotPayload
}

// swagger:parameters snapshotFind
type _ struct {
	// in: path
	// required: true
	ID uuid.UUID `json:"id"`
}

// swagger:parameters findClusterSnapshot
type _ struct {
	// in: path
	// required: true
	TeamID uuid.UUID `json:"teamId"`

	// in: path
	// required: true
	ID uuid.UUID `json:"id"`
}
