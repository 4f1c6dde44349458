package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Moshfiqmoon/joingroup/models"
	"github.com/Moshfiqmoon/joingroup/services"
	v1 "github.com/Moshfiqmoon/joingroup/v1"
	"github.com/Moshfiqmoon/joingroup/v1/hooks"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {

	// Load the .env file
	if err := godotenv.Load(); err != nil {
		fmt.Println("Error loading .env file: ", err)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger()

	// Cancelled on SIGINT/SIGTERM; stops the background tasks
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//================================================================================
	// Create the database connections
	//================================================================================

	dbPath := envOr("DB_PATH", "users.db")

	// Best-effort restore of the last snapshot before opening the store
	backupService := &services.BackupService{DBPath: dbPath, Log: logger}
	if err := backupService.RestoreIfMissing(); err != nil {
		logger.Warn().Err(err).Msg("startup restore failed, continuing with a fresh database")
	}

	// Open the primary store
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		logger.Fatal().Err(err).Str("path", dbPath).Msg("failed to open database")
	}

	// Migrate the schema
	if err := db.AutoMigrate(&models.User{}, &models.Message{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	// Connect the secondary store. An unreachable Redis is tolerated:
	// every read falls back to the primary and every write is logged.
	redisOpts, err := redis.ParseURL(envOr("REDIS_URL", "redis://localhost:6379"))
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	redisClient := redis.NewClient(redisOpts)

	primary := &services.SQLiteStore{DB: db}
	secondary := &services.RedisStore{Client: redisClient}
	dualStore := services.NewDualStore(primary, secondary, logger)

	//================================================================================
	// Setup the WebSockets server
	//================================================================================

	// Get all of the allowed origins
	allowedOrigins := GetAllowedOrigins()

	// Create the server
	socketIoServer := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&polling.Transport{
				CheckOrigin: checkOrigin(allowedOrigins),
			},
			&websocket.Transport{
				CheckOrigin: checkOrigin(allowedOrigins),
			},
		},
	})
	go socketIoServer.Serve()
	defer socketIoServer.Close()

	//================================================================================
	// Create all the service instances
	//================================================================================

	socketsService := &services.SocketsService{
		Server: socketIoServer,
		Log:    logger,
	}
	broadcaster := services.NewBroadcaster(socketsService, dualStore, logger)
	messagesService := &services.MessagesService{
		Store:       dualStore,
		Broadcaster: broadcaster,
		Log:         logger,
	}

	// Do some final update on the sockets service
	// Needed because it has a circular relationship with the messages service
	socketsService.Messages = messagesService
	socketsService.Setup()

	go broadcaster.Run(ctx)

	presenceService := services.NewPresenceService(primary)
	uploadsService := &services.UploadsService{
		Dir: envOr("UPLOAD_DIR", "uploads"),
		Log: logger,
	}

	// The join-approval listener only runs with a configured bot; the
	// manual inject path works either way
	var telegramService *services.TelegramService
	var platform services.PlatformClient = noPlatform{}
	if token := os.Getenv("BOT_TOKEN"); token != "" {
		chatID, err := strconv.ParseInt(os.Getenv("CHAT_ID"), 10, 64)
		if err != nil {
			logger.Fatal().Err(err).Msg("BOT_TOKEN is set but CHAT_ID is missing or invalid")
		}
		telegramService = &services.TelegramService{
			BotAPIKey: token,
			ChatID:    chatID,
			Log:       logger,
		}
		platform = telegramService
	} else {
		logger.Warn().Msg("BOT_TOKEN not set, join approval listener disabled")
	}

	joinService := services.NewJoinService(platform, dualStore, logger)
	if text := os.Getenv("WELCOME_TEXT"); text != "" {
		joinService.WelcomeText = text
	}
	if telegramService != nil {
		go joinService.Run(ctx, telegramService.Listen(ctx))
	}

	//================================================================================
	// Setup the Gin HTTP router
	//================================================================================

	// Create the Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))

	// Configure CORS for the API
	corsCfg := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsCfg.AllowOrigins = allowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowCredentials = !corsCfg.AllowAllOrigins
	corsCfg.AddAllowHeaders("Accept", "User-Agent", "Authorization")
	r.Use(cors.New(corsCfg))

	// Health endpoints live at the root, not under the API version
	r.GET("/", hooks.Root())
	r.GET("/health", hooks.Health(dualStore))

	// Create the API instance
	api := &v1.Server{
		Store:              dualStore,
		Messages:           messagesService,
		Presence:           presenceService,
		Joins:              joinService,
		Uploads:            uploadsService,
		Telegram:           telegramService,
		Backup:             backupService,
		FallbackInviteLink: os.Getenv("FALLBACK_INVITE_LINK"),
	}

	// Mount the API routes
	api.Setup(r.Group("v1"))

	// Create a mux to serve both the HTTP and Socket.IO servers
	mux := http.NewServeMux()
	mux.Handle("/socket.io/", socketIoServer)
	mux.Handle("/", r)

	// Run the server
	server := &http.Server{
		Addr:    ":" + envOr("PORT", "8080"),
		Handler: mux,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()
	logger.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server error")
	}

}

// envOr gets an environment variable with a fallback default
func envOr(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

// GetAllowedOrigins gets the slice of allowed CORS origins
func GetAllowedOrigins() []string {

	// Get the list of origins allowed
	env, ok := os.LookupEnv("CORS_ALLOW_ORIGINS")
	if !ok {
		return []string{}
	}

	// Create the slice for it
	origins := []string{}

	// Split up the env value
	originsRaw := strings.Split(env, ",")
	for _, originRaw := range originsRaw {
		origin := strings.TrimSpace(originRaw)
		origins = append(origins, origin)
	}

	// Return the origins slice
	return origins

}

// checkOrigin builds the origin check used by the socket transports. An
// empty allow list accepts every origin.
func checkOrigin(allowedOrigins []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowedOrigins) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		for _, allowed := range allowedOrigins {
			if strings.EqualFold(origin, allowed) {
				return true
			}
		}
		return false
	}
}

// noPlatform stands in for the messaging platform when no bot token is
// configured. Approvals cannot happen without a bot, and welcome sends
// just log through the workflow's normal failure path.
type noPlatform struct{}

func (noPlatform) Approve(ctx context.Context, chatID, userID int64) error {
	return services.ErrPlatformAPI
}

func (noPlatform) SendDirectMessage(ctx context.Context, userID int64, text string) error {
	return services.ErrPlatformAPI
}
