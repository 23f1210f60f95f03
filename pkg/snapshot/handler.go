package snapshot

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/internal/handler"
	"github.com/kubervise/kubervise-manager/pkg/model"
)

// maxSnapshotBytes is the largest snapshot accepted. Snapshots of large clusters are a couple of
// megabytes.
const maxSnapshotBytes = 32 << 20

func NewHandler(snapshotService snapshotService) Handler {
	return Handler{snapshotService}
}

type snapshotService interface {
	Ingest(ctx context.Context, clusterID uuid.UUID, presentedToken string, payload []byte) (*Ack, error)
	Find(ctx context.Context, clusterID uuid.UUID, presentedToken string) (*model.ClusterSnapshot, error)
	FindByTeam(ctx context.Context, teamID, clusterID uuid.UUID) (*model.ClusterSnapshot, error)
}

type Handler struct {
	snapshotService snapshotService
}

// Ingest snapshot
func (h Handler) Ingest(c *gin.Context) {
	// swagger:route POST /clusters/{id}/snapshot snapshotIngest
	//
	// Ingest snapshot
	//
	// Called by the agent of a cluster. Replaces the snapshot of the cluster.
	//
	// security:
	//   agentToken:
	//
	// responses:
	//   200: Ack
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	//   415: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	token, err := handler.GetTokenFromHttpAuthHeader(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	payload, err := handler.RawJSONBody(c, maxSnapshotBytes)
	if err != nil {
		_ = c.Error(err)
		return
	}

	ack, err := h.snapshotService.Ingest(c.Request.Context(), id, token, payload)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, ack)
}

// Find snapshot
func (h Handler) Find(c *gin.Context) {
	// swagger:route GET /clusters/{id}/snapshot snapshotFind
	//
	// Find snapshot
	//
	// Called by the agent of a cluster. Returns the latest snapshot of the cluster.
	//
	// security:
	//   agentToken:
	//
	// responses:
	//   200: ClusterSnapshot
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	token, err := handler.GetTokenFromHttpAuthHeader(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	snapshot, err := h.snapshotService.Find(c.Request.Context(), id, token)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// FindByTeam find the snapshot of a cluster of a team
func (h Handler) FindByTeam(c *gin.Context) {
	// swagger:route GET /teams/{teamId}/clusters/{id}/snapshot findClusterSnapshot
	//
	// Find cluster snapshot
	//
	// Find the latest snapshot of a cluster
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: ClusterSnapshot
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	teamID, ok := handler.GetPathParameter(c, "teamId")
	if !ok {
		return
	}

	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	snapshot, err := h.snapshotService.FindByTeam(c.Request.Context(), teamID, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}
