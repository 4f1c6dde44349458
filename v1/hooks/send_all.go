package hooks

import (
	"net/http"

	"github.com/Moshfiqmoon/joingroup/services"
	"github.com/gin-gonic/gin"
)

// SendAll sends one admin message to every known user
func SendAll(messages *services.MessagesService) gin.HandlerFunc {
	return func(c *gin.Context) {

		message := c.PostForm("message")
		if message == "" {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "msg": "Missing message"})
			return
		}

		count, err := messages.SendToAll(c.Request.Context(), message)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "msg": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok", "count": count})

	}
}
