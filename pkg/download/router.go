package download

import "github.com/gin-gonic/gin"

func Routes(r gin.IRouter, handler Handler) {
	r.GET("/downloads/:filename", handler.Download)
}
