package hooks

import (
	"net/http"
	"strconv"

	"github.com/Moshfiqmoon/joingroup/services"
	"github.com/gin-gonic/gin"
)

type SetUserLabelReq struct {
	Label string `json:"label"`
}

// SetUserLabel sets the admin-assigned label on a user. The label is the
// only mutable field on a user record.
func SetUserLabel(store *services.DualStore) gin.HandlerFunc {
	return func(c *gin.Context) {

		// Parse the user ID from the path
		userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}

		// Get the request body
		var req SetUserLabelReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// Update the label in both stores
		if err := store.SetLabel(c.Request.Context(), userID, req.Label); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"user_id": userID,
			"label":   req.Label,
		})

	}
}
