package handle

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Hello is the liveness probe the web client calls.
func (h *Handle) Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "API is working!",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
