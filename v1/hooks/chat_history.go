package hooks

import (
	"net/http"
	"strconv"

	"github.com/Moshfiqmoon/joingroup/services"
	"github.com/gin-gonic/gin"
)

// historyLimit caps a single chat history read
const historyLimit = 100

func ChatHistory(store *services.DualStore) gin.HandlerFunc {
	return func(c *gin.Context) {

		// Parse the user ID from the path
		userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}

		// Get the chat history for the user
		msgs, err := store.MessagesForUser(c.Request.Context(), userID, historyLimit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		// The dashboard consumes [sender, message, timestamp] triples
		results := make([][3]string, 0, len(msgs))
		for _, msg := range msgs {
			results = append(results, [3]string{msg.Sender, msg.Message, msg.Timestamp})
		}

		c.JSON(http.StatusOK, results)

	}
}
