package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quincena/quincena-backend/internal/config"
	"github.com/quincena/quincena-backend/internal/handler"
	"github.com/quincena/quincena-backend/internal/middleware"
	"github.com/quincena/quincena-backend/internal/repository/postgres"
	"github.com/quincena/quincena-backend/internal/repository/storage"
	"github.com/quincena/quincena-backend/internal/service"
	"github.com/quincena/quincena-backend/internal/websocket"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	investorRepo := postgres.NewInvestorRepository(pool)
	loanRepo := postgres.NewLoanRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	attachmentRepo := postgres.NewAttachmentRepository(pool)

	// Blob storage is optional; without it attachment uploads are disabled
	var fileRepo storage.FileRepository
	if cfg.S3.AccessKeyID != "" || cfg.S3.Endpoint != "" {
		s3Repo, err := storage.NewS3FileRepository(context.Background(), cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 storage")
		}
		fileRepo = s3Repo
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("S3 storage initialized")
	} else {
		log.Warn().Msg("S3 storage not configured, attachment uploads disabled")
	}

	// WebSocket hub broadcasts entity events to the dashboard
	hub := websocket.NewHub()

	// Initialize services
	authService := service.NewAuthService(userRepo, []byte(cfg.JWTSecret), cfg.TokenTTL)
	customerService := service.NewCustomerService(customerRepo, loanRepo, hub)
	investorService := service.NewInvestorService(investorRepo, loanRepo, hub)
	loanService := service.NewLoanService(loanRepo, paymentRepo, customerRepo, investorRepo, hub)
	paymentService := service.NewPaymentService(postgres.NewTxManager(pool), paymentRepo, loanRepo, hub)
	reportService := service.NewReportService(loanRepo, paymentRepo, customerRepo, investorRepo)
	exportService := service.NewExportService(reportService)
	attachmentService := service.NewAttachmentService(attachmentRepo, fileRepo)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	// Handlers
	handlers := handler.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Customer:   handler.NewCustomerHandler(customerService),
		Investor:   handler.NewInvestorHandler(investorService),
		Loan:       handler.NewLoanHandler(loanService),
		Payment:    handler.NewPaymentHandler(paymentService),
		Report:     handler.NewReportHandler(reportService, exportService),
		Attachment: handler.NewAttachmentHandler(attachmentService),
		WebSocket:  handler.NewWebSocketHandler(hub, authService, cfg.CORSOrigins),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.RequestID())

	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	e.Use(zerologMiddleware())
	e.Use(middleware.MetricsMiddleware())
	e.Use(echomiddleware.Recover())

	handler.RegisterRoutes(e, authMiddleware, rateLimiter, handlers)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
