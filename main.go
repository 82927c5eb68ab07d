package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PixPMusic/launchbridge/internal/config"
	"github.com/PixPMusic/launchbridge/internal/feedback"
	"github.com/PixPMusic/launchbridge/internal/logger"
	"github.com/PixPMusic/launchbridge/internal/midi"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := launch(); err != nil {
		log.Fatalf("launchbridge: %v", err)
	}
}

// launch returns instead of exiting so deferred cleanup always runs
func launch() error {
	var (
		configPath string
		logLevel   string
		listPorts  bool
	)
	flag.StringVar(&configPath, "config", "", "path to config file (.json or .yaml)")
	flag.StringVar(&logLevel, "log-level", "", "override the configured log level")
	flag.BoolVar(&listPorts, "list", false, "list MIDI ports and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	lg, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer func() { _ = lg.Sync() }()

	drv, err := midi.OpenBackend(cfg.MIDI.Backend, cfg.MIDI.ClientName)
	if err != nil {
		return fmt.Errorf("failed to select MIDI backend: %w", err)
	}
	defer func() {
		if err := drv.Close(); err != nil {
			lg.Warn("failed to close MIDI backend", zap.Error(err))
		}
	}()

	if listPorts {
		return printPorts(drv)
	}

	if !cfg.MIDIEnabled {
		lg.Info("MIDI disabled in config, nothing to do", zap.String("config", cfg.Path()))
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, cfg, drv, lg)
}

func run(ctx context.Context, cfg *config.Config, drv midi.Driver, lg *zap.Logger) error {
	eg, ctx := errgroup.WithContext(ctx)

	svc := midi.Start(ctx, drv, serviceOptions(cfg.MIDI), lg.Named("midi"))
	eg.Go(svc.Wait)

	renderer := feedback.NewRenderer(svc, cfg, lg.Named("feedback"))
	renderer.OnSelect = func(scene config.Scene) {
		cfg.SelectedSceneID = scene.ID
		if err := cfg.Save(); err != nil {
			lg.Warn("failed to save selected scene", zap.Error(err))
		}
	}
	eg.Go(func() error {
		defer svc.CloseEvents()
		return renderer.Run(ctx)
	})

	lg.Info("launchbridge started",
		zap.String("backend", cfg.MIDI.Backend),
		zap.Int("scenes", len(cfg.Scenes)))
	err := eg.Wait()
	if n := svc.Pending(); n > 0 {
		lg.Info("commands left unsent at shutdown", zap.Int("pending", n))
	}
	return err
}

func serviceOptions(c config.MIDIConfig) midi.Options {
	return midi.Options{
		Family:     c.Family,
		Qualifiers: c.Qualifiers,
		DAWMarker:  c.DAWMarker,
		Initializer: midi.InitializerOptions{
			Attempts:    c.EnumerationAttempts,
			Pause:       time.Duration(c.EnumerationPause),
			SettleDelay: time.Duration(c.SettleDelay),
		},
		RetryDelay: time.Duration(c.RetryDelay),
	}
}

func printPorts(drv midi.Driver) error {
	ins, err := midi.ListInPorts(drv)
	if err != nil {
		return err
	}
	outs, err := midi.ListOutPorts(drv)
	if err != nil {
		return err
	}

	fmt.Println("Available Input Ports:")
	for _, p := range ins {
		fmt.Println(p)
	}
	fmt.Println("\nAvailable Output Ports:")
	for _, p := range outs {
		fmt.Println(p)
	}
	return nil
}
