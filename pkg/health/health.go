package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health returns the health of the service
func Health(c *gin.Context) {
	// swagger:route GET /health health
	//
	// Service health status
	//
	// Service health status
	//
	// Responses:
	//   200: Health
	c.JSON(http.StatusOK, gin.H{
		"status": "up",
	})
}

// swagger:response Health
type _ struct {
	// in: body
	Body struct {
		Status string `json:"status"`
	}
}
