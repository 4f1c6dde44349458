package hooks

import (
	"net/http"

	"github.com/Moshfiqmoon/joingroup/models"
	"github.com/Moshfiqmoon/joingroup/services"
	"github.com/gin-gonic/gin"
)

type InjectUserReq struct {
	UserID    int64  `json:"user_id" binding:"required"`
	FullName  string `json:"full_name" binding:"required"`
	Username  string `json:"username"`
	PhotoURL  string `json:"photo_url"`
	Welcome   bool   `json:"welcome"`
	ChatTitle string `json:"chat_title"`
}

// InjectUser creates a user record directly, bypassing the platform
// approval step. This is the manual tail of the join workflow: persist,
// then optionally welcome.
func InjectUser(joins *services.JoinService) gin.HandlerFunc {
	return func(c *gin.Context) {

		// Get the request body
		var req InjectUserReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user := &models.User{
			UserID:   req.UserID,
			FullName: req.FullName,
			Username: req.Username,
			PhotoURL: req.PhotoURL,
		}
		if err := joins.InjectUser(c.Request.Context(), user, req.Welcome, req.ChatTitle); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"user_id": req.UserID,
		})

	}
}
