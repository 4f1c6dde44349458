package hooks

import (
	"net/http"

	"github.com/Moshfiqmoon/joingroup/services"
	"github.com/gin-gonic/gin"
)

// AdminBackup copies the primary store's snapshot to the backup path on
// operator demand
func AdminBackup(backup *services.BackupService) gin.HandlerFunc {
	return func(c *gin.Context) {

		path, err := backup.Backup()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "msg": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok", "path": path})

	}
}
