package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kubervise/kubervise-manager/internal/errdef"
)

// GetTokenFromHttpAuthHeader returns the bearer token of the Authorization header. A missing header
// and a header not using the Bearer scheme are both unauthorized.
func GetTokenFromHttpAuthHeader(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", errdef.NewUnauthorized("authorization header not found")
	}

	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return "", errdef.NewUnauthorized("authorization header must use the Bearer scheme")
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", errdef.NewUnauthorized("token not found in Authorization header")
	}

	return token, nil
}
