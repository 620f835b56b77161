package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/shipledger/config"
	"github.com/yourusername/shipledger/handlers"
	"github.com/yourusername/shipledger/logger"
	"github.com/yourusername/shipledger/middleware"
	"github.com/yourusername/shipledger/repository"
	"github.com/yourusername/shipledger/services"
	"github.com/yourusername/shipledger/utils"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zlog.Fatal("failed to get database handle", zap.Error(err))
	}
	defer sqlDB.Close()

	var archive utils.ArchiveClientInterface
	if cfg.ArchiveEnabled() {
		s3, err := utils.NewS3Archive(cfg.S3)
		if err != nil {
			zlog.Fatal("failed to configure invoice archive", zap.Error(err))
		}
		archive = s3
	} else {
		zlog.Info("invoice archive disabled, PDFs are rendered on demand")
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := setupRouter(cfg, repository.NewGormStore(db), archive, zlog)
	if err != nil {
		zlog.Fatal("failed to set up router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		zlog.Info("starting shipledger API server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}

func setupRouter(cfg *config.Config, store repository.Store, archive utils.ArchiveClientInterface, zlog *zap.Logger) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery(), logger.GinMiddleware(zlog))

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-Id, Content-Disposition")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "shipledger-api",
		})
	})

	authHandler, err := handlers.NewAuthHandler(cfg)
	if err != nil {
		return nil, err
	}

	expenseService := services.NewExpenseService(store, zlog)
	paymentService := services.NewPaymentService(store, zlog)
	reportService := services.NewReportService(store, cfg.Issuer, zlog)
	invoiceService := services.NewInvoiceService(store, archive, cfg.Issuer, zlog)

	expenseHandler := handlers.NewExpenseHandler(expenseService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	reportHandler := handlers.NewReportHandler(reportService)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService)

	api := router.Group("/api/v1")
	{
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/refresh", authHandler.Refresh)
	}

	protected := api.Group("")
	protected.Use(middleware.JwtAuthMiddleware(cfg.JWTSecret))
	{
		protected.GET("/auth/me", authHandler.Me)

		protected.GET("/clients", handlers.ListClients)
		protected.GET("/clients/credit", reportHandler.ClientCredit)

		// Expense endpoints
		protected.POST("/expenses", expenseHandler.CreateExpense)
		protected.GET("/expenses", expenseHandler.ListExpenses)
		protected.GET("/expenses/:id", expenseHandler.GetExpense)
		protected.PUT("/expenses/:id", expenseHandler.UpdateExpense)
		protected.DELETE("/expenses/:id", expenseHandler.DeleteExpense)

		// Payment endpoints: the only way money is allocated or reversed
		protected.POST("/payments", paymentHandler.CreatePayment)
		protected.GET("/payments", paymentHandler.ListPayments)
		protected.GET("/payments/:id", paymentHandler.GetPayment)
		protected.GET("/payments/:id/applications", paymentHandler.ListApplications)
		protected.DELETE("/payments/:id", paymentHandler.DeletePayment)

		// Invoice endpoints
		protected.POST("/invoices", invoiceHandler.CreateInvoice)
		protected.GET("/invoices", invoiceHandler.ListInvoices)
		protected.GET("/invoices/:id", invoiceHandler.GetInvoice)
		protected.GET("/invoices/:id/pdf", invoiceHandler.DownloadInvoice)

		protected.GET("/reports/monthly", reportHandler.MonthlyReport)
		protected.GET("/dashboard", reportHandler.Dashboard)
		protected.GET("/consistency", reportHandler.Consistency)
	}

	return router, nil
}
