package hooks

import (
	"net/http"

	"github.com/Moshfiqmoon/joingroup/services"
	"github.com/gin-gonic/gin"
)

// ChannelInviteLink returns the group's invite link from the platform,
// falling back to a configured static link when the platform client is
// absent or the call fails
func ChannelInviteLink(telegram *services.TelegramService, fallback string) gin.HandlerFunc {
	return func(c *gin.Context) {

		if telegram != nil {
			link, err := telegram.ExportInviteLink(c.Request.Context())
			if err == nil {
				c.JSON(http.StatusOK, gin.H{"invite_link": link})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"invite_link": fallback})

	}
}
