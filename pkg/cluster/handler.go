package cluster

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/internal/handler"
	"github.com/kubervise/kubervise-manager/pkg/model"
)

func NewHandler(clusterService clusterService) Handler {
	return Handler{clusterService}
}

type clusterService interface {
	Find(ctx context.Context, teamID, id uuid.UUID) (*model.Cluster, error)
	FindAll(ctx context.Context, teamID uuid.UUID) ([]model.Cluster, error)
	Update(ctx context.Context, teamID, id uuid.UUID, name, description string) (*model.Cluster, error)
	Delete(ctx context.Context, teamID, id uuid.UUID) error
}

type Handler struct {
	clusterService clusterService
}

// FindAll find all clusters of a team
func (h Handler) FindAll(c *gin.Context) {
	// swagger:route GET /teams/{teamId}/clusters findAllClusters
	//
	// Find all clusters
	//
	// Find all clusters of a team
	//
	// responses:
	//   200: Clusters
	//   400: Error
	//   401: Error
	//   403: Error
	//
	// security:
	//   oauth2:
	teamID, ok := handler.GetPathParameter(c, "teamId")
	if !ok {
		return
	}

	clusters, err := h.clusterService.FindAll(c.Request.Context(), teamID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, clusters)
}

// Find cluster by id
func (h Handler) Find(c *gin.Context) {
	// swagger:route GET /teams/{teamId}/clusters/{id} findClusterById
	//
	// Find cluster
	//
	// Find a cluster by its id
	//
	// responses:
	//   200: Cluster
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	//
	// security:
	//   oauth2:
	teamID, id, ok := teamAndClusterID(c)
	if !ok {
		return
	}

	cluster, err := h.clusterService.Find(c.Request.Context(), teamID, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, cluster)
}

type UpdateClusterRequest struct {
	Name        string `json:"name" binding:"notblank,max=63"`
	Description string `json:"description" binding:"max=255"`
}

// Update cluster
func (h Handler) Update(c *gin.Context) {
	// swagger:route PUT /teams/{teamId}/clusters/{id} clusterUpdate
	//
	// Update cluster
	//
	// Update the name and description of a cluster
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Cluster
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	//   415: Error
	teamID, id, ok := teamAndClusterID(c)
	if !ok {
		return
	}

	var request UpdateClusterRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	cluster, err := h.clusterService.Update(c.Request.Context(), teamID, id, request.Name, request.Description)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, cluster)
}

// Delete cluster
func (h Handler) Delete(c *gin.Context) {
	// swagger:route DELETE /teams/{teamId}/clusters/{id} clusterDelete
	//
	// Delete cluster
	//
	// Delete a cluster and its latest snapshot. The agent of the cluster won't be able to submit
	// snapshots afterwards.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   202:
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	teamID, id, ok := teamAndClusterID(c)
	if !ok {
		return
	}

	err := h.clusterService.Delete(c.Request.Context(), teamID, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusAccepted)
}

func teamAndClusterID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	teamID, ok := handler.GetPathParameter(c, "teamId")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	return teamID, id, true
}
