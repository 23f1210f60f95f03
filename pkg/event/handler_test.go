package event

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/pkg/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Stream(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	broker := NewBroker()
	h := NewHandler(logger, broker, time.Hour)
	teamID := uuid.New()
	clusterID := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	w := closeNotifyingRecorder{httptest.NewRecorder(), make(chan bool)}
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/teams/"+teamID.String()+"/events", nil).WithContext(ctx)
	c.Params = gin.Params{{Key: "teamId", Value: teamID.String()}}

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Stream(c)
	}()

	require.Eventually(t, func() bool { return broker.Subscribers(teamID) == 1 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, broker.Publish(context.Background(), notify.Notification{
		Kind:       notify.ClusterSnapshot,
		TeamID:     teamID,
		ClusterID:  clusterID,
		OccurredAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}))
	require.Eventually(t, func() bool { return pending(broker, teamID) == 0 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "id:"+clusterID.String())
	assert.Contains(t, body, "event:cluster.snapshot")
	assert.Contains(t, body, `"clusterId":"`+clusterID.String()+`"`)
	assert.Zero(t, broker.Subscribers(teamID))
}

func TestHandler_Stream_EndsWhenBrokerCloses(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	broker := NewBroker()
	h := NewHandler(logger, broker, time.Hour)
	teamID := uuid.New()

	w := closeNotifyingRecorder{httptest.NewRecorder(), make(chan bool)}
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/teams/"+teamID.String()+"/events", nil)
	c.Params = gin.Params{{Key: "teamId", Value: teamID.String()}}

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Stream(c)
	}()

	require.Eventually(t, func() bool { return broker.Subscribers(teamID) == 1 }, 5*time.Second, 10*time.Millisecond)
	broker.Close()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream didn't end after the broker was closed")
	}
	assert.Zero(t, broker.Subscribers(teamID))
}

// pending is the number of notifications published but not yet streamed.
func pending(b *Broker, teamID uuid.UUID) int {
	b.lock.Lock()
	defer b.lock.Unlock()

	n := 0
	for _, ch := range b.subscribers[teamID] {
		n += len(ch)
	}
	return n
}

// closeNotifyingRecorder is needed as gin streams only to writers implementing http.CloseNotifier.
type closeNotifyingRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r closeNotifyingRecorder) CloseNotify() <-chan bool {
	return r.closed
}
