package main

import (
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/pokecloud/trade-server/internal/accounts"
	"github.com/pokecloud/trade-server/internal/api/handlers"
	"github.com/pokecloud/trade-server/internal/api/middleware"
	"github.com/pokecloud/trade-server/internal/config"
	"github.com/pokecloud/trade-server/internal/crypto"
	"github.com/pokecloud/trade-server/internal/database"
	"github.com/pokecloud/trade-server/internal/debug"
	"github.com/pokecloud/trade-server/internal/friendtrade"
	"github.com/pokecloud/trade-server/internal/logger"
	"github.com/pokecloud/trade-server/internal/notify"
	"github.com/pokecloud/trade-server/internal/pokemon"
	"github.com/pokecloud/trade-server/internal/websocket"
	"github.com/pokecloud/trade-server/internal/wondertrade"
)

func main() {
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load(config.Overrides{})
	if err != nil {
		logger.Errorf("Failed to load config: %v", err)
		os.Exit(1)
	}

	if cfg.Debug {
		logger.SetDebug(true)
	}

	// Set Gin mode
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	pokemon.SetChecksumSecret(cfg.ChecksumSecret)

	// Open database
	logger.Infof("Opening database: %s", cfg.DatabasePath)
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		logger.Errorf("Failed to open database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	// Maintenance: drop never-activated accounts that went stale
	if os.Getenv("PRUNE_UNACTIVATED_ACCOUNTS") == "1" || os.Getenv("PRUNE_UNACTIVATED_ACCOUNTS") == "true" {
		logger.Warnf("PRUNE_UNACTIVATED_ACCOUNTS enabled - pruning stale accounts")
		if err := debug.PruneUnactivatedAccounts(db.DB); err != nil {
			logger.Warnf("Failed to prune accounts: %v", err)
		}
	}

	accountService := accounts.NewService(db)

	// Initialize JWT manager
	logger.Infof("Initializing JWT manager...")
	jwtManager, err := crypto.NewJWTManager(cfg.MasterSecret)
	if err != nil {
		logger.Errorf("Failed to create JWT manager: %v", err)
		os.Exit(1)
	}

	// Trade coordinators
	gateway := notify.NewGateway(cfg.WonderTradeWebhook)
	if gateway.Enabled() {
		logger.Infof("Wonder Trade webhook notifications enabled")
	}
	wonderCoordinator := wondertrade.NewCoordinator(accountService, gateway)
	friendCoordinator := friendtrade.NewCoordinator()

	// Initialize Socket.IO server
	logger.Infof("Initializing Socket.IO server...")
	socketIOServer := websocket.NewSocketIOServer(accountService, wonderCoordinator, friendCoordinator, cfg.EnforceUsernames)
	defer socketIOServer.Close()

	// Create Gin router
	router := gin.Default()

	// CORS middleware
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	// Logging middleware
	router.Use(middleware.LoggingMiddleware())

	// Root endpoint - returns plain text for client validation
	router.GET("/", func(c *gin.Context) {
		c.String(200, "Welcome to the Cloud Trade Server!")
	})

	// Account routes
	accountHandler := handlers.NewAccountHandler(accountService, jwtManager)
	router.POST("/createUser", accountHandler.PostCreateUser)
	router.POST("/checkUser", accountHandler.PostCheckUser)

	protected := router.Group("")
	protected.Use(middleware.AuthMiddleware(jwtManager))
	{
		protected.GET("/getCloudDataSyncKey", accountHandler.GetCloudDataSyncKey)
		protected.POST("/activateUser", accountHandler.PostActivateUser)
	}

	// Mount Socket.IO endpoint for the trade clients
	router.Any("/socket.io", socketIOServer.HandleSocketIO())
	router.Any("/socket.io/*any", socketIOServer.HandleSocketIO())

	// Start HTTP server
	logger.Infof("Trade server starting on http://localhost%s", cfg.Addr)
	logger.Infof("Database: %s", cfg.DatabasePath)
	if cfg.EnforceUsernames {
		logger.Infof("Account system enabled: usernames required for trades")
	}

	if err := router.Run(cfg.Addr); err != nil {
		logger.Errorf("Failed to start server: %v", err)
		os.Exit(1)
	}
}
