package event

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

	tokenAuthenticationRouter.GET("/teams/:teamId/events", authorizationMiddleware.RequirePermission(permission.ClusterView), handler.Stream)
}
