package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetPathParameter parses the path parameter as a UUID. The request is aborted with 400 if it
// isn't one.
func GetPathParameter(c *gin.Context, parameter string) (uuid.UUID, bool) {
	idParam := c.Param(parameter)
	id, err := uuid.Parse(idParam)
	if err != nil {
		_ = c.AbortWithError(http.StatusBadRequest, fmt.Errorf("error parsing %q: %v", parameter, err))
		return uuid.Nil, false
	}
	return id, true
}

// GetUintPathParameter parses the path parameter as an unsigned integer. The request is aborted
// with 400 if it isn't one.
func GetUintPathParameter(c *gin.Context, parameter string) (uint, bool) {
	idParam := c.Param(parameter)
	id, err := strconv.ParseUint(idParam, 10, 32)
	if err != nil {
		_ = c.AbortWithError(http.StatusBadRequest, fmt.Errorf("error parsing %q: %v", parameter, err))
		return 0, false
	}
	return uint(id), true
}
