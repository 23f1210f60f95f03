package download

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

func NewHandler(downloadService downloadService) Handler {
	return Handler{downloadService}
}

type downloadService interface {
	Location(ctx context.Context, filename string) (string, error)
}

type Handler struct {
	downloadService downloadService
}

// Download redirects to an installer binary
func (h Handler) Download(c *gin.Context) {
	// swagger:route GET /downloads/{filename} download
	//
	// Download installer
	//
	// Redirect to the installer binary of given name
	//
	// responses:
	//   307:
	//   404: Error
	location, err := h.downloadService.Location(c.Request.Context(), c.Param("filename"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, location)
}
