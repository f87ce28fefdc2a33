package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/mediscan-ai/mediscan/internal/analysis"
	"github.com/mediscan-ai/mediscan/internal/classifier"
	"github.com/mediscan-ai/mediscan/internal/config"
	"github.com/mediscan-ai/mediscan/internal/history"
	"github.com/mediscan-ai/mediscan/internal/logging"
	"github.com/mediscan-ai/mediscan/internal/server"
)

func main() {
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides config)")
	configPath := flag.String("config", "mediscan.yaml", "Path to MediScan config file")
	debugFlag := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	// Optional .env file for local development; missing is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		logrus.Fatalf("invalid config: %v", err)
	}

	addr := cfg.Server.Addr
	if env := os.Getenv("MEDISCAN_ADDR"); env != "" {
		addr = env
	}
	if *addrFlag != "" {
		addr = *addrFlag
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	models := classifier.NewManager(classifier.Config{
		ModelsDir:      cfg.Models.Dir,
		BrainModelPath: modelPath(cfg.Models.Dir, cfg.Models.BrainModelPath),
		ChestModelPath: modelPath(cfg.Models.Dir, cfg.Models.ChestModelPath),
		ImageSize:      cfg.Models.ImageSize,
		InputName:      cfg.Models.InputName,
		OutputName:     cfg.Models.OutputName,
		SimulationSeed: cfg.Models.SimulationSeed,
	}, log)
	defer models.Close()

	store, err := history.NewStore(cfg.History.Path, cfg.History.Retention)
	if err != nil {
		log.Fatalf("failed to open history store: %v", err)
	}

	appender := history.NewAppender(history.AppenderConfig{
		QueueSize:       cfg.History.QueueSize,
		Workers:         cfg.History.Workers,
		ShutdownTimeout: cfg.History.ShutdownTimeout,
	}, store, log)

	pipeline := analysis.New(models, appender, log, cfg.Models.ImageSize)
	srv := server.New(pipeline, models, store, cfg.Export.Dir, log, *debugFlag)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithField("addr", addr).Info("starting MediScan")
	if err := srv.Start(ctx, addr); err != nil {
		log.Fatalf("server error: %v", err)
	}

	// Drain pending history appends before exiting.
	appender.Close(context.Background())
	log.Info("shutdown complete")
}

func modelPath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
