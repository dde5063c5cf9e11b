package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/allexgorbunov/kingfin-contest-bot/internal/config"
	"github.com/allexgorbunov/kingfin-contest-bot/internal/database"
	"github.com/allexgorbunov/kingfin-contest-bot/internal/handlers"
	"github.com/allexgorbunov/kingfin-contest-bot/internal/metrics"
	"github.com/allexgorbunov/kingfin-contest-bot/internal/middleware"
	"github.com/allexgorbunov/kingfin-contest-bot/internal/repository"
	"github.com/allexgorbunov/kingfin-contest-bot/internal/services"
	"github.com/allexgorbunov/kingfin-contest-bot/internal/telegram"
	"github.com/allexgorbunov/kingfin-contest-bot/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	polling := pflag.Bool("polling", false, "receive updates with getUpdates even if WEBHOOK_BASE_URL is set")
	pflag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(*envFile, *polling, log); err != nil {
		log.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(envFile string, polling bool, log *slog.Logger) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}

	m := metrics.New(nil)
	hub := ws.NewHub(log.With(slog.String("component", "ws")))
	opts := []services.Option{
		services.WithLogger(log.With(slog.String("component", "services"))),
		services.WithMetrics(m),
		services.WithPublisher(hub),
		services.WithStoreTimeout(cfg.StoreTimeout),
	}

	var writes sync.Mutex
	guard := services.NewGuard(cfg.AdminID)
	registration := services.NewRegistrationService(store, &writes, opts...)
	draw := services.NewDrawService(store, guard, opts...)
	roster := services.NewRosterService(store, guard, &writes, cfg.ExportChunkSize, opts...)
	authService := services.NewAuthService(cfg.AdminID, cfg.AdminPasswordHash, cfg.JWTSecret)

	client := telegram.NewClient(cfg.BotToken)
	botLog := log.With(slog.String("component", "telegram"))
	updates := telegram.NewUpdateHandler(client, guard, registration, draw, roster, cfg.ExportChunkSize, m, botLog)
	botManager := telegram.NewBotManager(client, updates, cfg.BotToken, cfg.WebhookBaseURL, cfg.WebhookSecret, cfg.PollTimeout, botLog)

	authHandler := handlers.NewAuthHandler(authService, log)
	participantHandler := handlers.NewParticipantHandler(roster, log)
	wsHandler := handlers.NewWSHandler(hub, log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "Bot is running") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/webhook/bot/:secret", botManager.HandleWebhook)
	r.GET("/ws/roster", middleware.QueryTokenAuth(authService), wsHandler.Roster)

	api := r.Group("/api/v1")
	{
		api.POST("/auth/login", authHandler.Login)

		participants := api.Group("/participants")
		participants.Use(middleware.JWTAuth(authService))
		{
			participants.GET("", participantHandler.List)
			participants.GET("/export", participantHandler.Export)
			participants.GET("/duplicates", participantHandler.Duplicates)
			participants.DELETE("/:identifier", participantHandler.Remove)
			participants.POST("/reset", participantHandler.Reset)
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return botManager.Run(gctx, polling || cfg.WebhookBaseURL == "")
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(cfg *config.Config, log *slog.Logger) (services.ParticipantStore, error) {
	if cfg.DBDriver == "memory" {
		log.Warn("using in-memory participant store, data is lost on restart")
		return repository.NewInMemoryParticipantRepository(), nil
	}

	db, err := database.Connect(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db, log); err != nil {
		return nil, err
	}
	return repository.NewParticipantRepository(db), nil
}
