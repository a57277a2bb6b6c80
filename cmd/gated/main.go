// cmd/gated/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/parksensei/gated/internal/access"
	"github.com/parksensei/gated/internal/barrier"
	"github.com/parksensei/gated/internal/config"
	"github.com/parksensei/gated/internal/controller"
	"github.com/parksensei/gated/internal/dispatch"
	"github.com/parksensei/gated/internal/display"
	"github.com/parksensei/gated/internal/hardware"
	"github.com/parksensei/gated/internal/metrics"
	"github.com/parksensei/gated/internal/netsync"
	"github.com/parksensei/gated/internal/sensor"
	"github.com/parksensei/gated/internal/slot"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: gated <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	// Credentials live in the environment, optionally seeded from .env.
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	config.Normalize(cfg)

	logger, err := buildLogger(cfg.Gate.Log.Level)
	if err != nil {
		log.Fatalf("logger build failed: %v", err)
	}
	defer logger.Sync()

	// --------------------
	// Hardware
	// --------------------

	board, err := hardware.OpenBoard()
	if err != nil {
		logger.Fatal("gpio open failed", zap.Error(err))
	}
	defer board.Close()

	inputs := make([]hardware.Input, len(cfg.Gate.Sensors.Pins))
	for i, pin := range cfg.Gate.Sensors.Pins {
		inputs[i] = board.NewInput(pin)
	}

	openDuration := time.Duration(cfg.Gate.Barriers.OpenDurationMs) * time.Millisecond

	barriers := make(map[barrier.ID]*barrier.Controller, 2)
	for id, pin := range map[barrier.ID]int{
		barrier.Entry: cfg.Gate.Barriers.EntryPin,
		barrier.Exit:  cfg.Gate.Barriers.ExitPin,
	} {
		act := board.NewServo(pin, cfg.Gate.Barriers.OpenAngle, cfg.Gate.Barriers.ClosedAngle)
		b, err := barrier.New(id, act, openDuration, logger.Named("barrier"))
		if err != nil {
			logger.Fatal("barrier build failed",
				zap.String("barrier", string(id)), zap.Error(err))
		}
		// Known safe position before the control loop starts.
		if err := b.Close(); err != nil {
			logger.Fatal("barrier close failed",
				zap.String("barrier", string(id)), zap.Error(err))
		}
		barriers[id] = b
	}

	// --------------------
	// Domain components
	// --------------------

	monitor, err := sensor.New(inputs, cfg.Gate.Sensors.ActiveLow, logger.Named("sensor"))
	if err != nil {
		logger.Fatal("sensor monitor build failed", zap.Error(err))
	}

	mapper, err := slot.NewMapper(cfg.Gate.Sensors.TotalSlots, cfg.Gate.Sensors.SlotMapping)
	if err != nil {
		logger.Fatal("slot mapper build failed", zap.Error(err))
	}

	var screenDev display.Screen
	if cfg.Gate.Display.Enabled {
		screenDev = &display.ConsoleScreen{Log: logger.Named("display")}
	}
	screen := display.New(screenDev,
		time.Duration(cfg.Gate.Display.MessageDurationS)*time.Second, logger.Named("display"))

	m := metrics.New()

	sync := netsync.New(cfg.Gate.MQTT, logger.Named("netsync"), m)

	var scanner *access.Scanner
	if cfg.Gate.Access.ValidationURL != "" {
		validator := access.NewValidator(cfg.Gate.Access.ValidationURL,
			time.Duration(cfg.Gate.Access.TimeoutMs)*time.Millisecond, logger.Named("access"))
		scanner = access.NewScanner(validator,
			time.Duration(cfg.Gate.Access.CooldownS)*time.Second, logger.Named("access"), m)
	}

	ctrl, err := controller.New(controller.Config{
		Monitor:           monitor,
		Mapper:            mapper,
		Barriers:          barriers,
		Dispatcher:        dispatch.New(barriers, screen, logger.Named("dispatch")),
		Sync:              sync,
		Scanner:           scanner,
		Screen:            screen,
		Interval:          time.Duration(cfg.Gate.PollIntervalMs) * time.Millisecond,
		StatusLogInterval: time.Duration(cfg.Gate.StatusLogIntervalS) * time.Second,
		Metrics:           m,
		Log:               logger,
	})
	if err != nil {
		logger.Fatal("controller build failed", zap.Error(err))
	}

	// --------------------
	// Run until signalled
	// --------------------

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m.Serve(ctx, cfg.Gate.Metrics.ListenAddress, cfg.Gate.Metrics.Path, logger)

	logger.Info("gate controller starting",
		zap.String("broker", cfg.Gate.MQTT.Broker),
		zap.Int("sensors", len(inputs)),
		zap.Int("total_slots", cfg.Gate.Sensors.TotalSlots))

	ctrl.Run(ctx)

	logger.Info("gate controller stopped")
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
