package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pulsehr-backend/internal/config"
	"pulsehr-backend/internal/database"
	"pulsehr-backend/internal/handlers"
	"pulsehr-backend/internal/middleware"
	"pulsehr-backend/internal/repository"
	"pulsehr-backend/internal/router"
	"pulsehr-backend/internal/services"
	"pulsehr-backend/internal/storage"
	"pulsehr-backend/internal/websocket"
	"pulsehr-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting PulseHR Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	employeeRepo := repository.NewEmployeeRepo(pool)
	attendanceRepo := repository.NewAttendanceRepo(pool)
	captureRepo := repository.NewCaptureRepo(pool)
	payrollRepo := repository.NewPayrollRepo(pool)
	evaluationRepo := repository.NewEvaluationRepo(pool)
	announcementRepo := repository.NewAnnouncementRepo(pool)
	memoRepo := repository.NewMemoRepo(pool)
	shoutOutRepo := repository.NewShoutOutRepo(pool)
	secretSantaRepo := repository.NewSecretSantaRepo(pool)
	scheduleRepo := repository.NewScheduleRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	// ──── Step 5: Initialize Gemini Client ────
	summarizer, err := services.NewSummarizerService(
		cfg.GeminiAPIKey,
		cfg.GeminiConcurrentReqs,
		evaluationRepo,
		employeeRepo,
		jobRepo,
		redisClients.Queue,
	)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer summarizer.Close()
	log.Println("✓ Gemini Flash client initialized")

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL)
	authService := services.NewAuthService(employeeRepo, redisClients.Queue, jwtAuth, emailService)
	payrollService := services.NewPayrollService(attendanceRepo, payrollRepo, employeeRepo)
	secretSantaService := services.NewSecretSantaService(secretSantaRepo)
	docExtract := services.NewDocExtractService()
	uploader := storage.New(cfg.StorageCloudName, cfg.StorageAPIKey, cfg.StorageAPISecret, cfg.StorageFolder)

	// ──── Step 6: Start Job Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Queue,
		summarizer,
		payrollService,
		jobRepo,
		5,
	)
	workerPool.Start()
	log.Println("✓ Worker pool started (5 goroutines)")

	// ──── Step 7: Start Memo Escalation Sweeper ────
	escalationService := services.NewEscalationService(memoRepo, employeeRepo, emailService, cfg.EscalationPollInterval)
	escalationService.Start()
	log.Println("✓ Memo escalation sweeper started")

	// ──── Step 8: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	wsHub.Start()
	log.Println("✓ WebSocket hub started")

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	employeeHandler := handlers.NewEmployeeHandler(employeeRepo, authService, uploader)
	attendanceHandler := handlers.NewAttendanceHandler(attendanceRepo, captureRepo, cfg.AgentToken)
	payrollHandler := handlers.NewPayrollHandler(payrollRepo, employeeRepo, emailService, workerPool, wsHub)
	evaluationHandler := handlers.NewEvaluationHandler(evaluationRepo, summarizer, workerPool)
	announcementHandler := handlers.NewAnnouncementHandler(announcementRepo, uploader, docExtract, redisClients.PubSub)
	memoHandler := handlers.NewMemoHandler(memoRepo, escalationService)
	shoutOutHandler := handlers.NewShoutOutHandler(shoutOutRepo, redisClients.PubSub)
	secretSantaHandler := handlers.NewSecretSantaHandler(secretSantaRepo, secretSantaService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleRepo)
	adminHandler := handlers.NewAdminHandler(employeeRepo, authService)

	// ──── Step 9: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		employeeHandler,
		attendanceHandler,
		payrollHandler,
		evaluationHandler,
		announcementHandler,
		memoHandler,
		shoutOutHandler,
		secretSantaHandler,
		scheduleHandler,
		adminHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()
		escalationService.Stop()
		wsHub.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ PulseHR Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
