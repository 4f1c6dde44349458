package hooks

import (
	"net/http"
	"strconv"

	"github.com/Moshfiqmoon/joingroup/models"
	"github.com/Moshfiqmoon/joingroup/services"
	"github.com/gin-gonic/gin"
)

// SendOne sends a single admin message addressed by form fields
func SendOne(messages *services.MessagesService) gin.HandlerFunc {
	return func(c *gin.Context) {

		// Validate the request fields before any side effect
		rawUserID := c.PostForm("user_id")
		message := c.PostForm("message")
		if rawUserID == "" || message == "" {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "msg": "Missing user_id or message"})
			return
		}
		userID, err := strconv.ParseInt(rawUserID, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "msg": "invalid user_id"})
			return
		}

		// Record and relay the message
		if _, err := messages.Send(c.Request.Context(), userID, models.SenderAdmin, message); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "msg": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})

	}
}
