package v1

import (
	"github.com/Moshfiqmoon/joingroup/services"
	"github.com/Moshfiqmoon/joingroup/v1/hooks"
	"github.com/gin-gonic/gin"
)

// Server is the API server instance
type Server struct {
	Store              *services.DualStore
	Messages           *services.MessagesService
	Presence           *services.PresenceService
	Joins              *services.JoinService
	Uploads            *services.UploadsService
	Telegram           *services.TelegramService
	Backup             *services.BackupService
	FallbackInviteLink string
}

// Setup mounts the API server to the given group
func (s *Server) Setup(g *gin.RouterGroup) {

	// Dashboard reads
	g.GET("/dashboard-users", hooks.DashboardUsers(s.Store, s.Presence))
	g.GET("/dashboard-stats", hooks.DashboardStats(s.Store))

	// Chat history and sends
	g.GET("/chat/:user_id/messages", hooks.ChatHistory(s.Store))
	g.POST("/chat/:user_id", hooks.ChatSend(s.Messages, s.Uploads))
	g.POST("/send_one", hooks.SendOne(s.Messages))
	g.POST("/send_all", hooks.SendAll(s.Messages))

	// User management
	g.POST("/user/:user_id/label", hooks.SetUserLabel(s.Store))
	g.POST("/user/inject", hooks.InjectUser(s.Joins))

	// Platform
	g.GET("/get_channel_invite_link", hooks.ChannelInviteLink(s.Telegram, s.FallbackInviteLink))

	// Operator actions
	g.POST("/admin/backup", hooks.AdminBackup(s.Backup))
	g.POST("/admin/restore", hooks.AdminRestore(s.Backup))
	g.POST("/admin/migrate", hooks.AdminMigrate(s.Store))

}
