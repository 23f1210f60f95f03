package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kubervise/kubervise-manager/internal/errdef"
)

func DataBinder(c *gin.Context, req any) error {
	if c.ContentType() != "application/json" {
		return errdef.NewUnsupportedMediaType("%s only accepts content of type application/json", c.FullPath())
	}

	if err := c.ShouldBindJSON(req); err != nil {
		return errdef.NewBadRequest("error binding data: %v", err)
	}

	return nil
}

// RawJSONBody returns the request body as is. Bodies larger than maxBytes are rejected.
func RawJSONBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	if c.ContentType() != "application/json" {
		return nil, errdef.NewUnsupportedMediaType("%s only accepts content of type application/json", c.FullPath())
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes))
	if err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			return nil, errdef.NewBadRequest("request body must not be larger than %d bytes", maxBytes)
		}
		return nil, fmt.Errorf("failed to read request body: %v", err)
	}

	return body, nil
}
