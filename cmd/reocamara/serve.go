package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcosistoocommon/ReoCamara/internal/api"
	"github.com/marcosistoocommon/ReoCamara/internal/artifact"
	"github.com/marcosistoocommon/ReoCamara/internal/bot"
	"github.com/marcosistoocommon/ReoCamara/internal/camera"
	"github.com/marcosistoocommon/ReoCamara/internal/capture"
	"github.com/marcosistoocommon/ReoCamara/internal/config"
	"github.com/marcosistoocommon/ReoCamara/internal/delivery"
	"github.com/marcosistoocommon/ReoCamara/internal/events"
	"github.com/marcosistoocommon/ReoCamara/internal/ratelimit"
	"github.com/marcosistoocommon/ReoCamara/internal/route"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot and the status API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath, true)
	if err != nil {
		return err
	}
	if err := InitLogger(effectiveLogLevel(cfg.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	log.Infof("Starting ReoCamara...")

	// Artifact store
	store, err := artifact.NewStore(cfg.Artifacts.Dir, cfg.Artifacts.RetainVideos)
	if err != nil {
		return fmt.Errorf("failed to create artifact store: %w", err)
	}
	log.Infof("✓ Artifact store initialized (%s)", store.Dir())

	// Camera client and token cache
	cam := newCameraClient(cfg)
	tokens := camera.NewTokenCache(cam.Login, cfg.Camera.TokenTTL)
	log.Infof("✓ Camera client initialized (%s)", cfg.Camera.Host)

	// Capture runtime
	runner, closeRunner, err := newRunner(cfg, store.Dir())
	if err != nil {
		return err
	}
	defer closeRunner()

	checkCtx, cancelCheck := context.WithTimeout(context.Background(), 5*time.Minute)
	log.Infof("⏳ Checking capture runtime %s...", runner)
	if err := runner.Check(checkCtx); err != nil {
		log.Warningf("⚠️ Capture runtime unavailable, videos will fail: %v", err)
	} else {
		log.Infof("✓ Capture runtime ready")
	}
	cancelCheck()

	recorder := capture.NewRecorder(runner, capture.StreamURL(cfg.Camera.User, cfg.Camera.Password, cfg.Camera.Host, cfg.Camera.RTSPPort))

	executor := route.NewExecutor(tokens, cam, recorder, route.Config{
		Settle:        cfg.Route.Settle,
		Speed:         cfg.Camera.Speed,
		MaxConcurrent: cfg.Route.MaxConcurrent,
	})
	log.Infof("✓ Route executor initialized (%d routes, settle %v)", len(cfg.Routes), executor.Settle())

	// Telegram
	botAPI, err := bot.Connect(cfg.Bot.Token, cfg.Bot.Debug)
	if err != nil {
		return err
	}
	messenger := bot.NewTelegramMessenger(botAPI)

	hub := events.NewHub()
	deliveries := delivery.NewManager(messenger, store, hub)
	log.Infof("✓ Delivery manager initialized (self-destruct after %v)", cfg.Delivery.Lifetime)

	limiter := ratelimit.NewLimiter(cfg.Bot.RateLimit, cfg.Bot.RateBurst)

	dispatcher := bot.NewDispatcher(bot.Deps{
		Executor:   executor,
		Tokens:     tokens,
		Camera:     cam,
		Recorder:   recorder,
		Artifacts:  store,
		Deliveries: deliveries,
		Replies:    messenger,
		Limiter:    limiter,
	}, bot.Config{
		Routes:       cfg.Routes,
		ClipDuration: cfg.Capture.ClipDuration,
		Lifetime:     cfg.Delivery.Lifetime,
	})
	poller := bot.NewPoller(botAPI, dispatcher, cfg.Bot.PollTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Artifacts.JanitorInterval > 0 {
		go store.StartJanitor(ctx, cfg.Artifacts.JanitorInterval, cfg.Artifacts.MaxAge)
	}

	// Status API
	var srv *http.Server
	if cfg.Server.Addr != "" {
		handler := api.NewHandler(cfg.Routes, deliveries, tokens, store)
		srv = &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      handler.SetupRoutes(hub.HandleConnection),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		go func() {
			log.Infof("🚀 Status API listening on %s", cfg.Server.Addr)
			log.Infof("📍 Endpoints: /v1/health /v1/routes /v1/deliveries /v1/events")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("Server error: %v", err)
				cancel()
			}
		}()
	}

	for _, r := range cfg.Routes {
		log.Infof("🎥 /%s %v", r.Name, r.Presets)
	}
	if cfg.Bot.RateLimit > 0 {
		log.Infof("⏱️  Rate Limit: %d commands/hour per chat", cfg.Bot.RateLimit)
	}

	done := make(chan error, 1)
	go func() {
		done <- poller.Run(ctx)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Infof("⏳ Shutting down gracefully...")
	cancel()

	// Pending deliveries self-destruct as the poller drains
	if err := <-done; err != nil {
		log.Errorf("Poller error: %v", err)
	}

	if srv != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Server forced to shutdown: %v", err)
		}
	}

	log.Infof("✅ Stopped cleanly")
	return nil
}

func newCameraClient(cfg *config.Config) *camera.Client {
	return camera.NewClient(camera.Config{
		ControlURL:  cfg.Camera.ControlURL(),
		SnapshotURL: cfg.Camera.SnapshotURL(),
		User:        cfg.Camera.User,
		Password:    cfg.Camera.Password,
		InsecureTLS: cfg.Camera.InsecureTLS,
		Timeout:     cfg.Camera.Timeout,
	})
}

// newRunner builds the configured capture runtime and its cleanup
func newRunner(cfg *config.Config, workDir string) (capture.Runner, func(), error) {
	switch cfg.Capture.Runtime {
	case config.RuntimeDocker:
		runner, err := capture.NewDockerRunner(cfg.Capture.Image, workDir)
		if err != nil {
			return nil, nil, err
		}
		return runner, func() {
			if err := runner.Close(); err != nil {
				log.Warningf("Failed to close docker client: %v", err)
			}
		}, nil
	default:
		return capture.NewExecRunner(cfg.Capture.FFmpeg), func() {}, nil
	}
}
