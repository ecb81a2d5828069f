package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hexturf/turf-server-go/internal/config"
	"github.com/hexturf/turf-server-go/internal/game"
	"github.com/hexturf/turf-server-go/internal/game/defs"
	"github.com/hexturf/turf-server-go/internal/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting turf server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Load and validate the card and token tables before accepting matches.
	registry := defs.BaseRegistry()
	if err := registry.Validate(); err != nil {
		logger.Fatal("definition tables invalid", zap.Error(err))
	}
	logger.Info("definition tables loaded",
		zap.Int("tokens", registry.TokenCount()),
		zap.Int("abilities", registry.AbilityCount()),
		zap.Int("leaders", registry.LeaderCount()),
	)

	opts := game.Options{
		TurnLimit:      cfg.Game.TurnTimeLimit,
		ReactionLimit:  cfg.Game.ReactionTimeLimit,
		GameLimit:      cfg.Game.GameTimeLimit,
		HandLimit:      cfg.Game.HandLimit,
		StartingHand:   cfg.Game.StartingHand,
		TurfsPerPlayer: cfg.Game.TurfsPerPlayer,
		GridRadius:     cfg.Game.GridRadius,
		StairStep:      cfg.Game.StairStep,
	}

	engine := game.NewEngine(registry, opts, logger)
	logger.Info("match engine initialized",
		zap.Float64("turn_limit", opts.TurnLimit),
		zap.Float64("reaction_limit", opts.ReactionLimit),
		zap.Float64("game_limit", opts.GameLimit),
	)

	if cfg.Replay.Enabled {
		recorder := game.NewReplayRecorder(cfg.Replay.Dir, logger)
		engine.SetRecorder(recorder)
		logger.Info("replay recorder initialized", zap.String("dir", cfg.Replay.Dir))
	}

	hub := server.NewHub(engine, logger)
	go hub.Run(ctx)

	go func() {
		if wsErr := server.StartWebSocketServer(cfg.Server.WebSocket, hub, logger); wsErr != nil {
			logger.Error("WebSocket server error", zap.Error(wsErr))
		}
	}()

	logger.Info("turf server initialized",
		zap.String("version", version),
		zap.String("websocket_address", cfg.Server.WebSocket.Address),
	)

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	cancel()

	logger.Info("turf server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
