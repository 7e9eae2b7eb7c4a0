// main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/Marga-Ghale/ora-roster-backend/internal/api/handlers"
	"github.com/Marga-Ghale/ora-roster-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-roster-backend/internal/config"
	"github.com/Marga-Ghale/ora-roster-backend/internal/cron"
	"github.com/Marga-Ghale/ora-roster-backend/internal/db"
	"github.com/Marga-Ghale/ora-roster-backend/internal/metrics"
	"github.com/Marga-Ghale/ora-roster-backend/internal/notification"
	"github.com/Marga-Ghale/ora-roster-backend/internal/repository"
	"github.com/Marga-Ghale/ora-roster-backend/internal/seed"
	"github.com/Marga-Ghale/ora-roster-backend/internal/service"
	"github.com/Marga-Ghale/ora-roster-backend/internal/socket"
)

func main() {
	// ============================================
	// Load environment variables
	// ============================================
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// ============================================
	// Load configuration
	// ============================================
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// ============================================
	// Initialize storage
	// ============================================
	var pgDB *db.PostgresDB
	if cfg.StoreBackend == repository.BackendPostgres {
		log.Println("🔄 Running database migrations...")
		if err := db.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			log.Fatalf("❌ Migration failed: %v", err)
		}
		log.Println("✅ Database migrations completed")

		pgDB, err = db.NewPostgresDB(cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			log.Fatalf("❌ Failed to connect to PostgreSQL: %v", err)
		}
		defer pgDB.Close()
	}

	// Redis backs the redis store and the cross-process roster lock.
	var redisDB *db.RedisDB
	if cfg.RedisEnabled() {
		redisDB, err = db.NewRedisDB(cfg.RedisURL)
		if err != nil {
			if cfg.StoreBackend == repository.BackendRedis {
				log.Fatalf("❌ Failed to connect to Redis: %v", err)
			}
			log.Printf("⚠️ Failed to connect to Redis: %v (continuing with in-process locking)", err)
			redisDB = nil
		} else {
			defer redisDB.Close()
			log.Println("⚡ Redis roster lock enabled")
		}
	}

	var (
		pool   *pgxpool.Pool
		client *redis.Client
	)
	if pgDB != nil {
		pool = pgDB.Pool
	}
	if redisDB != nil {
		client = redisDB.Client
	}

	repos, err := repository.NewRepositories(cfg.StoreBackend, pool, client)
	if err != nil {
		log.Fatalf("❌ Failed to initialize repositories: %v", err)
	}
	log.Printf("📦 Roster store initialized (backend=%s)", cfg.StoreBackend)

	// ============================================
	// Metrics
	// ============================================
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewPrometheus(registry, "roster")

	// ============================================
	// Initialize WebSocket Hub
	// ============================================
	hub := socket.NewHub(collector)
	go hub.Run()
	defer hub.Stop()
	broadcaster := socket.NewBroadcaster(hub)
	notifier := notification.NewService(broadcaster)
	log.Println("🔌 WebSocket hub initialized")

	// ============================================
	// Initialize All Services
	// ============================================
	services := service.NewServices(&service.ServiceDeps{
		Config:    cfg,
		Repos:     repos,
		Redis:     redisDB,
		Publisher: notifier,
		Metrics:   collector,
	})
	log.Println("✨ All services initialized")

	wsHandler := socket.NewHandler(hub, services.Auth, cfg.CORSOrigins)

	// ============================================
	// Seed Data (for development)
	// ============================================
	if !cfg.IsProduction() {
		log.Println("🌱 Seeding development data...")
		seed.SeedData(services)
	}

	// ============================================
	// Initialize Cron Scheduler
	// ============================================
	cronScheduler := cron.NewScheduler(services.Roster, cfg.ExpirySweepSpec)
	if err := cronScheduler.Start(); err != nil {
		log.Fatalf("❌ Failed to start scheduler: %v", err)
	}
	defer cronScheduler.Stop()

	// ============================================
	// Create Gin Router
	// ============================================
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		database := "not configured"
		if pgDB != nil {
			database = "connected"
			if err := pgDB.Ping(ctx); err != nil {
				database = "unreachable"
				status = http.StatusServiceUnavailable
			}
		}

		c.JSON(status, gin.H{
			"status":     http.StatusText(status),
			"timestamp":  time.Now(),
			"store":      cfg.StoreBackend,
			"database":   database,
			"cache":      getCacheStatus(ctx, redisDB),
			"websocket":  "active",
			"ws_clients": hub.GetConnectedClientsCount(),
			"inflight":   services.Dispatcher.Inflight(),
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.GET("/ws", wsHandler.HandleWebSocket)
	handlers.NewHandlers(services).RegisterRoutes(api, services.Auth, !cfg.IsProduction())

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func getCacheStatus(ctx context.Context, redisDB *db.RedisDB) string {
	if redisDB == nil {
		return "disabled"
	}
	if err := redisDB.Ping(ctx); err != nil {
		return "unreachable"
	}
	return "connected"
}
