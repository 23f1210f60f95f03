package onboarding

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
	r.POST("/install-callback", handler.InstallCallback)
	r.POST("/install-callback/:token", handler.InstallCallback)
	// used by installers released before the install callback existed
	r.GET("/install/:token", handler.InstallCallback)

	tokenAuthenticationRouter := r.Group("")
	tokenAuthenticationRouter.Use(authenticationMiddleware.TokenAuthentication)

	tokenAuthenticationRouter.POST("/teams/:teamId/onboardings", authorizationMiddleware.RequirePermission(permission.ClusterCreate), handler.Start)
	tokenAuthenticationRouter.GET("/teams/:teamId/onboardings/:id", authorizationMiddleware.RequirePermission(permission.ClusterView), handler.Status)
	tokenAuthenticationRouter.DELETE("/teams/:teamId/onboardings/:id", authorizationMiddleware.RequirePermission(permission.OnboardingCancel), handler.Cancel)
}
