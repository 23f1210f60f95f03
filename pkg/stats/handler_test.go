package stats

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/internal/errdef"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHandler_TeamStats(t *testing.T) {
	teamID := uuid.New()

	tests := []struct {
		name         string
		query        string
		recentEvents int
	}{
		{"Default", "", DefaultRecentEvents},
		{"Explicit", "?recentEvents=20", 20},
		{"Zero", "?recentEvents=0", 0},
		{"Capped", "?recentEvents=1000", MaxRecentEvents},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			service := &mockStatsService{}
			service.On("TeamStats", mock.Anything, teamID, test.recentEvents).Return(&DashboardStats{}, nil)
			h := NewHandler(service)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/"+test.query, nil)
			c.AddParam("teamId", teamID.String())

			h.TeamStats(c)

			require.Empty(t, c.Errors)
			assert.Equal(t, http.StatusOK, w.Code)
			service.AssertExpectations(t)
		})
	}

	for _, query := range []string{"?recentEvents=-1", "?recentEvents=many"} {
		t.Run("Invalid"+query, func(t *testing.T) {
			service := &mockStatsService{}
			h := NewHandler(service)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/"+query, nil)
			c.AddParam("teamId", teamID.String())

			h.TeamStats(c)

			require.Len(t, c.Errors, 1)
			assert.True(t, errdef.IsBadRequest(c.Errors.Last()))
		})
	}
}

type mockStatsService struct{ mock.Mock }

func (m *mockStatsService) TeamStats(ctx context.Context, teamID uuid.UUID, recentEvents int) (*DashboardStats, error) {
	called := m.Called(ctx, teamID, recentEvents)
	stats, ok := called.Get(0).(*DashboardStats)
	if ok {
		return stats, nil
	}
	return nil, called.Error(1)
}
