package stats

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/internal/errdef"
	"github.com/kubervise/kubervise-manager/internal/handler"
)

func NewHandler(statsService statsService) Handler {
	return Handler{statsService}
}

type statsService interface {
	TeamStats(ctx context.Context, teamID uuid.UUID, recentEvents int) (*DashboardStats, error)
}

type Handler struct {
	statsService statsService
}

// TeamStats dashboard stats of a team
func (h Handler) TeamStats(c *gin.Context) {
	// swagger:route GET /teams/{teamId}/stats teamStats
	//
	// Team stats
	//
	// Counts of nodes, pods, events and alerts across all clusters of a team along with the most
	// recent events
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: DashboardStats
	//   400: Error
	//   401: Error
	//   403: Error
	teamID, ok := handler.GetPathParameter(c, "teamId")
	if !ok {
		return
	}

	recentEvents := DefaultRecentEvents
	if value, ok := c.GetQuery("recentEvents"); ok {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			_ = c.Error(errdef.NewBadRequest("recentEvents must be a non negative integer: %q", value))
			return
		}
		recentEvents = min(n, MaxRecentEvents)
	}

	stats, err := h.statsService.TeamStats(c.Request.Context(), teamID, recentEvents)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
