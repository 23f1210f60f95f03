package onboarding

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/internal/errdef"
	"github.com/kubervise/kubervise-manager/internal/handler"
	"github.com/kubervise/kubervise-manager/pkg/model"
)

func NewHandler(onboardingService onboardingService) Handler {
	return Handler{onboardingService}
}

type onboardingService interface {
	Start(ctx context.Context, user *model.User, teamID uuid.UUID, name, description string) (*StartResult, error)
	Redeem(ctx context.Context, installToken string) (*RedeemResult, error)
	PollStatus(ctx context.Context, teamID, id uuid.UUID) (*Status, error)
	Cancel(ctx context.Context, teamID, id uuid.UUID) error
}

type Handler struct {
	onboardingService onboardingService
}

type StartOnboardingRequest struct {
	Name        string `json:"name" binding:"notblank,max=63"`
	Description string `json:"description" binding:"max=255"`
}

// Start onboarding of a cluster
func (h Handler) Start(c *gin.Context) {
	// swagger:route POST /teams/{teamId}/onboardings onboardingStart
	//
	// Start onboarding
	//
	// Issue an install token for a new cluster. The cluster is created once its agent is installed
	// using one of the returned install commands.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   201: StartResult
	//   400: Error
	//   401: Error
	//   403: Error
	//   415: Error
	teamID, ok := handler.GetPathParameter(c, "teamId")
	if !ok {
		return
	}

	var request StartOnboardingRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.onboardingService.Start(c.Request.Context(), user, teamID, request.Name, request.Description)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Status of an onboarding
func (h Handler) Status(c *gin.Context) {
	// swagger:route GET /teams/{teamId}/onboardings/{id} onboardingStatus
	//
	// Onboarding status
	//
	// Poll the status of an onboarding until it's connected or expired
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: OnboardingStatus
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	teamID, id, ok := teamAndOnboardingID(c)
	if !ok {
		return
	}

	status, err := h.onboardingService.PollStatus(c.Request.Context(), teamID, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// Cancel onboarding
func (h Handler) Cancel(c *gin.Context) {
	// swagger:route DELETE /teams/{teamId}/onboardings/{id} onboardingCancel
	//
	// Cancel onboarding
	//
	// Cancel a pending onboarding. Its install token can't be redeemed afterwards.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   202:
	//   400: Error
	//   401: Error
	//   403: Error
	teamID, id, ok := teamAndOnboardingID(c)
	if !ok {
		return
	}

	err := h.onboardingService.Cancel(c.Request.Context(), teamID, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusAccepted)
}

// InstallCallback redeem an install token
func (h Handler) InstallCallback(c *gin.Context) {
	// swagger:route POST /install-callback/{token} installCallback
	//
	// Install callback
	//
	// Called by the installer running in the cluster. Redeems the install token, creates the
	// cluster and returns the manifest of its agent. A token can only be redeemed once.
	//
	// responses:
	//   200: RedeemResult
	//   400: Error
	//   404: Error
	//   409: Error
	//   410: Error
	installToken := c.Param("token")
	if installToken == "" {
		_ = c.Error(errdef.NewBadRequest("install token is missing"))
		return
	}

	result, err := h.onboardingService.Redeem(c.Request.Context(), installToken)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func teamAndOnboardingID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
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
