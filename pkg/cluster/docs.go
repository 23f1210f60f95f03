// Package cluster manages the clusters of a team. Clusters are created by redeeming an onboarding
// and are read, renamed and deleted here. It also authenticates the agents of clusters.
package cluster

import (
	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/pkg/model"
)

// swagger:response Cluster
type _ struct {
	// in: body
	Body model.Cluster
}

// swagger:response Clusters
type _ struct {
	// in: body
	Body []model.Cluster
}

// swagger:parameters findAllClusters
type _ struct {
	// in: path
	// required: true
	TeamID uuid.UUID `json:"teamId"`
}

// swagger:parameters findClusterById clusterDelete
type _ struct {
	// in: path
	// required: true
	TeamID uuid.UUID `json:"teamId"`

	// in: path
	// required: true
	ID uuid.UUID `json:"id"`
}

// swagger:parameters clusterUpdate
type _ struct {
	// in: path
	// required: true
	TeamID uuid.UUID `json:"teamId"`

	// in: path
	// required: true
	ID uuid.UUID `json:"id"`

	// in: body
	// required: true
	Body UpdateClusterRequest
}
