package cluster

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/internal/errdef"
	"github.com/kubervise/kubervise-manager/internal/handler"
	"github.com/kubervise/kubervise-manager/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHandler_Find(t *testing.T) {
	teamID := uuid.New()
	id := uuid.New()
	service := &mockClusterService{}
	service.On("Find", mock.Anything, teamID, id).Return(&model.Cluster{ID: id, TeamID: teamID, Name: "prod", AgentToken: "secret"}, nil)
	h := NewHandler(service)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.AddParam("teamId", teamID.String())
	c.AddParam("id", id.String())

	h.Find(c)

	require.Empty(t, c.Errors)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret", "agent token must never be serialized")
	var got model.Cluster
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "prod", got.Name)
	service.AssertExpectations(t)
}

func TestHandler_Find_NotFound(t *testing.T) {
	teamID := uuid.New()
	id := uuid.New()
	service := &mockClusterService{}
	service.On("Find", mock.Anything, teamID, id).Return(nil, errdef.NewNotFound("cluster not found"))
	h := NewHandler(service)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.AddParam("teamId", teamID.String())
	c.AddParam("id", id.String())

	h.Find(c)

	require.Len(t, c.Errors, 1)
	assert.True(t, errdef.IsNotFound(c.Errors.Last()))
}

func TestHandler_Update(t *testing.T) {
	require.NoError(t, handler.RegisterValidation())
	teamID := uuid.New()
	id := uuid.New()

	t.Run("Valid", func(t *testing.T) {
		service := &mockClusterService{}
		service.On("Update", mock.Anything, teamID, id, "staging", "moved").Return(&model.Cluster{ID: id, Name: "staging"}, nil)
		h := NewHandler(service)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = newJSONRequest(http.MethodPut, `{"name": "staging", "description": "moved"}`)
		c.AddParam("teamId", teamID.String())
		c.AddParam("id", id.String())

		h.Update(c)

		require.Empty(t, c.Errors)
		assert.Equal(t, http.StatusOK, w.Code)
		service.AssertExpectations(t)
	})

	t.Run("BlankName", func(t *testing.T) {
		service := &mockClusterService{}
		h := NewHandler(service)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = newJSONRequest(http.MethodPut, `{"name": "   "}`)
		c.AddParam("teamId", teamID.String())
		c.AddParam("id", id.String())

		h.Update(c)

		require.Len(t, c.Errors, 1)
		assert.True(t, errdef.IsBadRequest(c.Errors.Last()))
		service.AssertNotCalled(t, "Update")
	})
}

func TestHandler_Delete(t *testing.T) {
	teamID := uuid.New()
	id := uuid.New()
	service := &mockClusterService{}
	service.On("Delete", mock.Anything, teamID, id).Return(nil)
	h := NewHandler(service)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/", nil)
	c.AddParam("teamId", teamID.String())
	c.AddParam("id", id.String())

	h.Delete(c)

	require.Empty(t, c.Errors)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestHandler_InvalidClusterID(t *testing.T) {
	service := &mockClusterService{}
	h := NewHandler(service)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.AddParam("teamId", uuid.NewString())
	c.AddParam("id", "42")

	h.Find(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func newJSONRequest(method, body string) *http.Request {
	request := httptest.NewRequest(method, "/", strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	return request
}

type mockClusterService struct{ mock.Mock }

func (m *mockClusterService) Find(ctx context.Context, teamID, id uuid.UUID) (*model.Cluster, error) {
	called := m.Called(ctx, teamID, id)
	cluster, _ := called.Get(0).(*model.Cluster)
	return cluster, called.Error(1)
}

func (m *mockClusterService) FindAll(ctx context.Context, teamID uuid.UUID) ([]model.Cluster, error) {
	called := m.Called(ctx, teamID)
	return called.Get(0).([]model.Cluster), called.Error(1)
}

func (m *mockClusterService) Update(ctx context.Context, teamID, id uuid.UUID, name, description string) (*model.Cluster, error) {
	called := m.Called(ctx, teamID, id, name, description)
	cluster, _ := called.Get(0).(*model.Cluster)
	return cluster, called.Error(1)
}

func (m *mockClusterService) Delete(ctx context.Context, teamID, id uuid.UUID) error {
	return m.Called(ctx, teamID, id).Error(0)
}
