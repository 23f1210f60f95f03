package team

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/internal/errdef"
	"github.com/kubervise/kubervise-manager/internal/handler"
	"github.com/kubervise/kubervise-manager/pkg/model"
	"github.com/kubervise/kubervise-manager/pkg/permission"
)

func NewHandler(teamService teamService) Handler {
	return Handler{teamService}
}

type teamService interface {
	Create(ctx context.Context, name string, ownerID uint) (*model.Team, error)
	Find(ctx context.Context, id uuid.UUID) (*model.Team, error)
	FindRole(ctx context.Context, teamID uuid.UUID, userID uint) (permission.Role, error)
	AddMember(ctx context.Context, callerRole permission.Role, teamID uuid.UUID, userID uint, role permission.Role) (*model.Membership, error)
	ChangeRole(ctx context.Context, callerRole permission.Role, teamID uuid.UUID, userID uint, role permission.Role) (*model.Membership, error)
}

type Handler struct {
	teamService teamService
}

type CreateTeamRequest struct {
	Name string `json:"name" binding:"notblank,max=255"`
}

// Create team
func (h Handler) Create(c *gin.Context) {
	// swagger:route POST /teams teamCreate
	//
	// Create team
	//
	// Create a team. The authenticated user becomes its owner.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   201: Team
	//   400: Error
	//   401: Error
	//   415: Error
	var request CreateTeamRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	team, err := h.teamService.Create(c.Request.Context(), request.Name, user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, team)
}

// Find team by id
func (h Handler) Find(c *gin.Context) {
	// swagger:route GET /teams/{teamId} findTeamById
	//
	// Find team
	//
	// Find a team and its memberships
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Team
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	teamID, ok := handler.GetPathParameter(c, "teamId")
	if !ok {
		return
	}

	team, err := h.teamService.Find(c.Request.Context(), teamID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, team)
}

type MembershipRequest struct {
	Role string `json:"role" binding:"required,oneOf=owner admin contributor viewer"`
}

// AddMember add a user to a team
func (h Handler) AddMember(c *gin.Context) {
	// swagger:route POST /teams/{teamId}/members/{userId} teamAddMember
	//
	// Add member
	//
	// Add a user to a team with the given role
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   201: Membership
	//   400: Error
	//   401: Error
	//   403: Error
	//   409: Error
	//   415: Error
	h.membership(c, http.StatusCreated, h.teamService.AddMember)
}

// ChangeRole change the role of a member of a team
func (h Handler) ChangeRole(c *gin.Context) {
	// swagger:route PUT /teams/{teamId}/members/{userId} teamChangeRole
	//
	// Change role
	//
	// Change the role of a member. The last owner of a team can't be demoted.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Membership
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	//   409: Error
	//   415: Error
	h.membership(c, http.StatusOK, h.teamService.ChangeRole)
}

type membershipFunc func(ctx context.Context, callerRole permission.Role, teamID uuid.UUID, userID uint, role permission.Role) (*model.Membership, error)

func (h Handler) membership(c *gin.Context, status int, fn membershipFunc) {
	teamID, ok := handler.GetPathParameter(c, "teamId")
	if !ok {
		return
	}

	userID, ok := handler.GetUintPathParameter(c, "userId")
	if !ok {
		return
	}

	var request MembershipRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	role, err := permission.ParseRole(request.Role)
	if err != nil {
		_ = c.Error(errdef.NewBadRequest("%v", err))
		return
	}

	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	ctx := c.Request.Context()
	callerRole, err := h.teamService.FindRole(ctx, teamID, user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	membership, err := fn(ctx, callerRole, teamID, userID, role)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(status, membership)
}
