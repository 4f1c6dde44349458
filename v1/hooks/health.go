package hooks

import (
	"net/http"
	"time"

	"github.com/Moshfiqmoon/joingroup/services"
	"github.com/gin-gonic/gin"
)

// Root is the liveness endpoint
func Root() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"message":   "Join relay API is running",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// Health reports per-store reachability, evaluated fresh on every call
func Health(store *services.DualStore) gin.HandlerFunc {
	return func(c *gin.Context) {

		health := store.Health(c.Request.Context())

		status := "healthy"
		if !health.Primary {
			status = "degraded"
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    status,
			"api":       "running",
			"primary":   health.Primary,
			"secondary": health.Secondary,
		})

	}
}
