package hooks

import (
	"net/http"
	"time"

	"github.com/Moshfiqmoon/joingroup/services"
	"github.com/gin-gonic/gin"
)

// activeUserWindow is the trailing window for the dashboard's active
// user count
const activeUserWindow = 60 * time.Minute

func DashboardStats(store *services.DualStore) gin.HandlerFunc {
	return func(c *gin.Context) {

		ctx := c.Request.Context()

		// Each count independently applies the secondary-preferred
		// fallback, so a dead store degrades one number, not the page
		c.JSON(http.StatusOK, gin.H{
			"total_users":     store.CountUsers(ctx),
			"active_users":    store.CountActiveUsers(ctx, activeUserWindow),
			"total_messages":  store.CountMessages(ctx),
			"new_joins_today": store.CountNewJoinsToday(ctx),
		})

	}
}
