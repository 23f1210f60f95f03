package event

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/internal/handler"
	"github.com/kubervise/kubervise-manager/pkg/notify"
)

func NewHandler(logger *slog.Logger, broker broker, keepAlive time.Duration) Handler {
	return Handler{
		logger:    logger,
		broker:    broker,
		keepAlive: keepAlive,
	}
}

type broker interface {
	Subscribe(teamID uuid.UUID) (uuid.UUID, <-chan notify.Notification)
	Unsubscribe(teamID, id uuid.UUID)
}

type Handler struct {
	logger    *slog.Logger
	broker    broker
	keepAlive time.Duration
}

// Stream cluster notifications of a team
func (h Handler) Stream(c *gin.Context) {
	// swagger:route GET /teams/{teamId}/events streamEvents
	//
	// Stream events
	//
	// Stream the cluster notifications of a team as server-sent events. Events are named after the
	// notification kind, for example cluster.snapshot.
	//
	// responses:
	//   200: Stream
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

	id, notifications := h.broker.Subscribe(teamID)
	defer h.broker.Unsubscribe(teamID, id)

	ctx := c.Request.Context()
	h.logger.InfoContext(ctx, "Subscribed to events", "teamId", teamID, "subscriptionId", id)

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Status(http.StatusOK)

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		return h.next(ctx, c, notifications, keepAlive.C)
	})

	h.logger.InfoContext(ctx, "Unsubscribed from events", "teamId", teamID, "subscriptionId", id)
}

// next renders the next notification or a keep-alive. It returns false once the client is gone or
// the subscription is closed.
func (h Handler) next(ctx context.Context, c *gin.Context, notifications <-chan notify.Notification, keepAlive <-chan time.Time) bool {
	select {
	case <-ctx.Done():
		return false
	case n, ok := <-notifications:
		if !ok {
			return false
		}
		data, err := json.Marshal(n)
		if err != nil {
			h.logger.ErrorContext(ctx, "Failed to marshal notification", "error", err)
			return true
		}
		c.Render(-1, sse.Event{
			Id:    n.ClusterID.String(),
			Event: string(n.Kind),
			Data:  string(data),
		})
		return true
	case <-keepAlive:
		c.Render(-1, sse.Event{Event: "keep-alive", Data: ""})
		return true
	}
}
