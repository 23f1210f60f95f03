package middleware

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/internal/errdef"
	"github.com/kubervise/kubervise-manager/internal/handler"
	"github.com/kubervise/kubervise-manager/pkg/permission"
)

func NewAuthorization(logger *slog.Logger, roleFinder roleFinder) AuthorizationMiddleware {
	return AuthorizationMiddleware{
		logger:     logger,
		roleFinder: roleFinder,
	}
}

// AuthorizationMiddleware gates team scoped routes. The team is taken from the "teamId" path
// parameter and the callers role in that team is looked up on every request.
type AuthorizationMiddleware struct {
	logger     *slog.Logger
	roleFinder roleFinder
}

type roleFinder interface {
	FindRole(ctx context.Context, teamID uuid.UUID, userID uint) (permission.Role, error)
}

// RequirePermission only lets a request through if the authenticated user holds given permission
// in the team of the route.
func (m AuthorizationMiddleware) RequirePermission(p permission.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := handler.GetUserFromContext(c)
		if err != nil {
			_ = c.Error(errdef.NewUnauthorized("%v", err))
			c.Abort()
			return
		}

		teamID, ok := handler.GetPathParameter(c, "teamId")
		if !ok {
			return
		}

		role, err := m.roleFinder.FindRole(c.Request.Context(), teamID, user.ID)
		if err != nil {
			if errdef.IsNotFound(err) {
				m.logger.WarnContext(c.Request.Context(), "User is not a member of team", "teamId", teamID)
				_ = c.Error(errdef.NewForbidden("not a member of team %q", teamID))
			} else {
				_ = c.Error(err)
			}
			c.Abort()
			return
		}

		if !permission.Has(role, p) {
			m.logger.WarnContext(c.Request.Context(), "Permission denied", "teamId", teamID, "role", role, "permission", p)
			_ = c.Error(errdef.NewForbidden("role %q lacks permission %q", role, p))
			c.Abort()
			return
		}

		c.Next()
	}
}
