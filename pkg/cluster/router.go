package cluster

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

	tokenAuthenticationRouter.GET("/teams/:teamId/clusters", authorizationMiddleware.RequirePermission(permission.ClusterView), handler.FindAll)
	tokenAuthenticationRouter.GET("/teams/:teamId/clusters/:id", authorizationMiddleware.RequirePermission(permission.ClusterView), handler.Find)
	tokenAuthenticationRouter.PUT("/teams/:teamId/clusters/:id", authorizationMiddleware.RequirePermission(permission.ClusterEdit), handler.Update)
	tokenAuthenticationRouter.DELETE("/teams/:teamId/clusters/:id", authorizationMiddleware.RequirePermission(permission.ClusterDelete), handler.Delete)
}
