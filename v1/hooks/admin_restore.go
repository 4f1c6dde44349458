package hooks

import (
	"net/http"

	"github.com/Moshfiqmoon/joingroup/services"
	"github.com/gin-gonic/gin"
)

// AdminRestore copies the backup snapshot over the live database file on
// operator demand
func AdminRestore(backup *services.BackupService) gin.HandlerFunc {
	return func(c *gin.Context) {

		path, err := backup.Restore()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "msg": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok", "path": path})

	}
}
