package team

import (
	"github.com/gin-gonic/gin"
	"github.com/kubervise/kubervise-manager/pkg/permission"
)

type AuthenticationMiddleware interface {
	TokenAuthentication(context *gin.Context)
}

type AuthorizationMiddleware interface {
	RequirePermission(p permission.Permission) gin.HandlerFunc
}

func Routes(r gin.IRouter, authenticationMiddleware AuthenticationMiddleware, authorizationMiddleware AuthorizationMiddleware, handler Handler) {
	tokenAuthenticationRouter := r.Group("")
	tokenAuthenticationRouter.Use(authenticationMiddleware.TokenAuthentication)

	tokenAuthenticationRouter.POST("/teams", handler.Create)
	tokenAuthenticationRouter.GET("/teams/:teamId", authorizationMiddleware.RequirePermission(permission.TeamView), handler.Find)
	tokenAuthenticationRouter.POST("/teams/:teamId/members/:userId", authorizationMiddleware.RequirePermission(permission.TeamInvite), handler.AddMember)
	tokenAuthenticationRouter.PUT("/teams/:teamId/members/:userId", authorizationMiddleware.RequirePermission(permission.TeamChangeRoles), handler.ChangeRole)
}
