package hooks

import (
	"net/http"
	"strconv"

	"github.com/Moshfiqmoon/joingroup/services"
	"github.com/gin-gonic/gin"
)

func DashboardUsers(
	store *services.DualStore,
	presence *services.PresenceService,
) gin.HandlerFunc {
	return func(c *gin.Context) {

		// Get the pagination parameters
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

		// Get the page of users
		users, total, err := store.DashboardUsers(c.Request.Context(), page, pageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		// Attach derived online status to each user
		results := make([]gin.H, 0, len(users))
		for _, user := range users {
			online, _ := presence.IsOnline(c.Request.Context(), user.UserID)
			results = append(results, gin.H{
				"user_id":     user.UserID,
				"full_name":   user.FullName,
				"username":    user.Username,
				"join_date":   user.JoinDate,
				"invite_link": user.InviteLink,
				"photo_url":   user.PhotoURL,
				"label":       user.Label,
				"is_online":   online,
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"users":     results,
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		})

	}
}
