package hooks

import (
	"net/http"
	"strconv"

	"github.com/Moshfiqmoon/joingroup/models"
	"github.com/Moshfiqmoon/joingroup/services"
	"github.com/gin-gonic/gin"
)

// ChatSend handles an admin send into a user's chat: a text message, one
// or more uploaded files, or both in one request
func ChatSend(
	messages *services.MessagesService,
	uploads *services.UploadsService,
) gin.HandlerFunc {
	return func(c *gin.Context) {

		// Parse the user ID from the path
		userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}

		message := c.PostForm("message")
		form, _ := c.MultipartForm()
		var files []*services.StoredFile

		// Handle the text message
		sent := false
		if message != "" {
			if _, err := messages.Send(c.Request.Context(), userID, models.SenderAdmin, message); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
				return
			}
			sent = true
		}

		// Handle any uploaded files. Each file is stored to disk and
		// recorded in the chat as a file marker message.
		if form != nil {
			for _, fh := range form.File["files"] {
				f, err := fh.Open()
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
					return
				}
				stored, err := uploads.Save(fh.Filename, f)
				f.Close()
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
					return
				}
				files = append(files, stored)
				marker := services.FileMarker(stored.Name)
				if _, err := messages.Send(c.Request.Context(), userID, models.SenderAdmin, marker); err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
					return
				}
				sent = true
			}
		}

		if !sent {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "No message or files sent"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "Message sent",
			"files":   files,
		})

	}
}
