package snapshot

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

// Routes registers the agent routes, authenticated by the agent token of the cluster, and the user
// routes.
func Routes(r gin.IRouter, authenticationMiddleware AuthenticationMiddleware, authorizationMiddleware AuthorizationMiddleware, handler Handler) {
	r.POST("/clusters/:id/snapshot", handler.Ingest)
	r.GET("/clusters/:id/snapshot", handler.Find)

	tokenAuthenticationRouter := r.Group("")
	tokenAuthenticationRouter.Use(authenticationMiddleware.TokenAuthentication)

	tokenAuthenticationRouter.GET("/teams/:teamId/clusters/:id/snapshot", authorizationMiddleware.RequirePermission(permission.ClusterView), handler.FindByTeam)
}
