package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmerrifield20/jugtracker/internal/config"
	"github.com/jmerrifield20/jugtracker/internal/handler"
	"github.com/jmerrifield20/jugtracker/internal/health"
	"github.com/jmerrifield20/jugtracker/internal/jugledger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve [ledger.csv]",
	Short: "Run the jug tracker HTTP API",
	Long: `serve starts the HTTP API. The optional argument names the CSV ledger
file and takes precedence over ledger.path / LEDGER_PATH.

A TLS listener is started as well when server.tls_cert_file and
server.tls_key_file are both configured.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, _ := zap.NewProduction()
		defer logger.Sync() //nolint:errcheck

		var ledgerArg string
		if len(args) == 1 {
			ledgerArg = args[0]
		}
		if err := runServe(logger, ledgerArg); err != nil {
			logger.Error("jugtracker exited with error", zap.Error(err))
			return err
		}
		return nil
	},
}

func runServe(logger *zap.Logger, ledgerArg string) error {
	// ── Configuration ────────────────────────────────────────────────────────
	cfg, err := config.Load(cfgFile, ledgerArg)
	if err != nil {
		return err
	}
	if cfg.ConfigFile == "" {
		logger.Warn("no config file found, using defaults and env vars")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Storage ──────────────────────────────────────────────────────────────
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}

	ledger := jugledger.New(store, logger)
	if n, err := ledger.Len(ctx); err != nil {
		logger.Warn("ledger unreadable at startup", zap.Error(err))
	} else {
		handler.SetLedgerRows(n)
		logger.Info("ledger ready",
			zap.String("driver", cfg.StorageDriver),
			zap.Int("rows", n),
		)
	}

	// ── Health monitor ───────────────────────────────────────────────────────
	checker := health.New(store, health.Config{
		CheckInterval: cfg.CheckInterval,
		FailThreshold: cfg.FailThreshold,
	}, logger)
	checker.SetMetricsRecord(handler.RecordLedgerProbe)
	checker.SetRowsRecord(handler.SetLedgerRows)
	go checker.Start(ctx)

	// ── HTTP Router ──────────────────────────────────────────────────────────
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(ctx, cfg, ledger, checker, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("jugtracker HTTP listening", zap.Int("port", cfg.Port))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP listen error", zap.Error(err))
		}
	}()

	// ── TLS Server ───────────────────────────────────────────────────────────
	var tlsSrv *http.Server
	if cfg.TLSEnabled() {
		tlsSrv = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.TLSPort),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			logger.Info("jugtracker HTTPS listening", zap.Int("port", cfg.TLSPort))
			if err := tlsSrv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("TLS listen error", zap.Error(err))
			}
		}()
	}

	// ── Graceful shutdown ────────────────────────────────────────────────────
	<-quit
	logger.Info("shutting down jugtracker...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}
	if tlsSrv != nil {
		if err := tlsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("TLS shutdown error", zap.Error(err))
		}
	}

	logger.Info("jugtracker stopped")
	return nil
}

// openStore builds the ledger store selected by storage.driver. The returned
// func releases any resources the store holds.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (jugledger.Store, func(), error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory ledger; events are lost on restart")
		return jugledger.NewMemoryStore(), func() {}, nil

	case config.DriverPostgres:
		db, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		logger.Info("connected to postgres")
		return jugledger.NewPostgresStore(db, logger), db.Close, nil

	default:
		logger.Info("using CSV ledger", zap.String("path", cfg.LedgerPath))
		return jugledger.NewFileStore(cfg.LedgerPath), func() {}, nil
	}
}

// newRouter wires middleware and routes. checker may be nil.
func newRouter(ctx context.Context, cfg *config.Config, ledger handler.Ledger, checker *health.Checker, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", handler.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", handler.RequestIDHeader},
		AllowCredentials: !containsWildcard(cfg.CORSOrigins),
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Security headers
	router.Use(func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})

	// Request body size limit (1 MB)
	router.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20)
		c.Next()
	})

	router.Use(handler.RequestID())

	// Per-IP rate limiting
	if rps := cfg.RateLimitRPS; rps > 0 {
		router.Use(handler.RateLimiter(ctx, rps, rps*2))
	}

	router.Use(requestLogger(logger))
	router.Use(handler.PrometheusMiddleware())

	healthHandler := handler.NewHealthHandler(nil)
	if checker != nil {
		healthHandler = handler.NewHealthHandler(checker)
	}
	healthHandler.Register(&router.RouterGroup)
	router.GET("/metrics", handler.MetricsHandler())

	dataHandler := handler.NewDataHandler(ledger, logger)
	if cfg.StorageDriver == config.DriverCSV {
		dataHandler.SetExportName(filepath.Base(cfg.LedgerPath))
	}

	api := router.Group("/api")
	handler.NewJugHandler(ledger, logger).Register(api)
	dataHandler.Register(api)

	return router
}

// containsWildcard returns true if origins includes "*".
func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}

// requestLogger returns a Gin middleware that logs each request with zap.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(handler.RequestIDKey)),
		)
	}
}
