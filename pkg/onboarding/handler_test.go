package onboarding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/internal/errdef"
	"github.com/kubervise/kubervise-manager/internal/handler"
	"github.com/kubervise/kubervise-manager/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHandler_Start(t *testing.T) {
	require.NoError(t, handler.RegisterValidation())
	teamID := uuid.New()
	user := &model.User{ID: 7}
	service := &mockOnboardingService{}
	service.
		On("Start", mock.Anything, user, teamID, "prod", "").
		Return(&StartResult{Token: installToken, ExpiresAt: now.Add(24 * time.Hour)}, nil)
	h := NewHandler(service)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	request := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name": "prod"}`))
	request.Header.Set("Content-Type", "application/json")
	c.Request = request
	c.AddParam("teamId", teamID.String())
	c.Set("user", user)

	h.Start(c)

	require.Empty(t, c.Errors)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), installToken)
	service.AssertExpectations(t)
}

func TestHandler_InstallCallback(t *testing.T) {
	t.Run("Redeemed", func(t *testing.T) {
		clusterID := uuid.New()
		service := &mockOnboardingService{}
		service.On("Redeem", mock.Anything, installToken).Return(&RedeemResult{
			ClusterID:   clusterID,
			ClusterName: "prod",
			Manifest:    "kind: Namespace",
			Message:     "registered",
		}, nil)
		h := NewHandler(service)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
		c.AddParam("token", installToken)

		h.InstallCallback(c)

		require.Empty(t, c.Errors)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{
			"cluster_id": "`+clusterID.String()+`",
			"cluster_name": "prod",
			"manifest": "kind: Namespace",
			"message": "registered"
		}`, w.Body.String())
	})

	t.Run("MissingToken", func(t *testing.T) {
		service := &mockOnboardingService{}
		h := NewHandler(service)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

		h.InstallCallback(c)

		require.Len(t, c.Errors, 1)
		assert.True(t, errdef.IsBadRequest(c.Errors.Last()))
		service.AssertNotCalled(t, "Redeem", mock.Anything, mock.Anything)
	})

	t.Run("Expired", func(t *testing.T) {
		service := &mockOnboardingService{}
		service.On("Redeem", mock.Anything, installToken).Return(nil, errdef.NewExpired("expired"))
		h := NewHandler(service)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
		c.AddParam("token", installToken)

		h.InstallCallback(c)

		require.Len(t, c.Errors, 1)
		assert.True(t, errdef.IsExpired(c.Errors.Last()))
	})
}

func TestHandler_Cancel(t *testing.T) {
	teamID := uuid.New()
	id := uuid.New()
	service := &mockOnboardingService{}
	service.On("Cancel", mock.Anything, teamID, id).Return(nil)
	h := NewHandler(service)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/", nil)
	c.AddParam("teamId", teamID.String())
	c.AddParam("id", id.String())

	h.Cancel(c)

	require.Empty(t, c.Errors)
	assert.Equal(t, http.StatusAccepted, w.Code)
	service.AssertExpectations(t)
}

type mockOnboardingService struct{ mock.Mock }

func (m *mockOnboardingService) Start(ctx context.Context, user *model.User, teamID uuid.UUID, name, description string) (*StartResult, error) {
	called := m.Called(ctx, user, teamID, name, description)
	result, ok := called.Get(0).(*StartResult)
	if ok {
		return result, nil
	}
	return nil, called.Error(1)
}

func (m *mockOnboardingService) Redeem(ctx context.Context, installToken string) (*RedeemResult, error) {
	called := m.Called(ctx, installToken)
	result, ok := called.Get(0).(*RedeemResult)
	if ok {
		return result, nil
	}
	return nil, called.Error(1)
}

func (m *mockOnboardingService) PollStatus(ctx context.Context, teamID, id uuid.UUID) (*Status, error) {
	called := m.Called(ctx, teamID, id)
	status, ok := called.Get(0).(*Status)
	if ok {
		return status, nil
	}
	return nil, called.Error(1)
}

func (m *mockOnboardingService) Cancel(ctx context.Context, teamID, id uuid.UUID) error {
	called := m.Called(ctx, teamID, id)
	return called.Error(0)
}
