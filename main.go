package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"game-session-service/handlers"
	"game-session-service/middleware"
	"game-session-service/models"
	"game-session-service/services"
	"game-session-service/utils"
	"game-session-service/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 64 * 1024, // score submissions are tiny JSON bodies
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, X-User-ID, X-Service-Token",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.GameSession{},
		&models.GameAttempt{},
		&models.UserDailyScore{},
		&models.SuspiciousActivity{},
		&models.DifficultyConfig{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	tokenSecret := os.Getenv("GAME_TOKEN_SECRET")
	if tokenSecret == "" {
		log.Fatal("GAME_TOKEN_SECRET environment variable not set")
	}
	challengeSecret := os.Getenv("CHALLENGE_SECRET")
	if challengeSecret == "" {
		log.Fatal("CHALLENGE_SECRET environment variable not set")
	}

	creditServiceURL := os.Getenv("CREDIT_SERVICE_URL")
	if creditServiceURL == "" {
		log.Fatal("CREDIT_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("GAME_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("GAME_SERVICE_TOKEN environment variable not set")
	}

	tokenService := services.NewTokenService(tokenSecret, challengeSecret)
	configService := services.NewConfigService(db)
	creditClient := services.NewCreditServiceClient(creditServiceURL, serviceToken)
	sessionService := services.NewSessionService(db, tokenService, configService, creditClient)

	if err := configService.EnsureDefaultConfig(); err != nil {
		log.Fatal("failed to seed difficulty config:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auditExporter := workers.NewAuditExporter(db)
	auditInterval := 5 * time.Minute
	if raw := os.Getenv("AUDIT_EXPORT_INTERVAL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			auditInterval = parsed
		} else {
			log.Printf("⚠️  Invalid AUDIT_EXPORT_INTERVAL %q, keeping %s", raw, auditInterval)
		}
	}
	go workers.PollAudit(ctx, auditExporter, auditInterval)

	sessionService.StartMaintenanceScheduler()

	handlers.SetupGameRoutes(app, sessionService, configService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Maintenance scheduler running (abandon sweep + daily prune)")
	log.Printf("✅ Audit export polling running (every %s)", auditInterval)
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
