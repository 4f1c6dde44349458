package hooks

import (
	"net/http"

	"github.com/Moshfiqmoon/joingroup/services"
	"github.com/gin-gonic/gin"
)

// AdminMigrate copies all primary-store records into the secondary
// store. This is the operator-driven reconciliation path for divergence
// left behind by failed secondary writes.
func AdminMigrate(store *services.DualStore) gin.HandlerFunc {
	return func(c *gin.Context) {

		users, messages, err := store.Migrate(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "msg": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"users":    users,
			"messages": messages,
		})

	}
}
