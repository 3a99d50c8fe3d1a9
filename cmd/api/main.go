package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	_ "campus-backend/api/swagger" // swagger docs
	"campus-backend/internal/database"
	"campus-backend/internal/handler"
	"campus-backend/internal/middleware"
	"campus-backend/internal/notify"
	"campus-backend/internal/repository"
	"campus-backend/internal/service"
	"campus-backend/internal/strategy"
	"campus-backend/internal/websocket"
	"campus-backend/internal/workflow"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Campus Approval API
// @version         1.0
// @description     Multi-level approval workflow for student applications (status changes, scholarships, refunds, bookings, discipline appeals).
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Repositories
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	appRepo := repository.NewApplicationRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	approverRepo := repository.NewApproverRepository(db)
	configRepo := repository.NewConfigRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Workflow engine wiring
	notifier := notify.NewHubNotifier(notificationRepo, wsHub)
	directory := workflow.NewDirectory(approverRepo, userRepo)
	strategies := workflow.NewStrategyRegistry(
		strategy.NewStatusChange(db),
		strategy.NewScholarship(db),
		strategy.NewRefund(db),
		strategy.NewBooking(db),
		strategy.NewDisciplineAppeal(db),
	)
	engine := workflow.NewEngine(txManager, appRepo, recordRepo, approverRepo, configRepo, auditRepo, directory, strategies, notifier)

	// Deadline monitor
	monitorInterval := 5 * time.Minute
	if raw := os.Getenv("MONITOR_INTERVAL_MINUTES"); raw != "" {
		if minutes, err := strconv.Atoi(raw); err == nil && minutes > 0 {
			monitorInterval = time.Duration(minutes) * time.Minute
		}
	}
	monitor := workflow.NewMonitor(appRepo, notifier, monitorInterval)
	monitor.Start(context.Background())

	// Services
	userService := service.NewUserService(userRepo, tokenRepo)
	appService := service.NewApplicationService(engine, appRepo)
	approverService := service.NewApproverService(approverRepo, userRepo, configRepo, auditRepo)
	auditService := service.NewAuditService(auditRepo)
	notificationService := service.NewNotificationService(notificationRepo)

	// Handlers
	userHandler := handler.NewUserHandler(userService)
	appHandler := handler.NewApplicationHandler(appService)
	approverHandler := handler.NewApproverHandler(approverService)
	auditHandler := handler.NewAuditHandler(auditService)
	notificationHandler := handler.NewNotificationHandler(notificationService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	appHandler.RegisterRoutes(router.Group(""))
	approverHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	notificationHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
