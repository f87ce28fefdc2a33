package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the loaded config for required fields and safe values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}

	if cfg.Models.ImageSize <= 0 {
		return fmt.Errorf("models.image_size must be positive, got %d", cfg.Models.ImageSize)
	}
	if strings.TrimSpace(cfg.Models.InputName) == "" {
		return errors.New("models.input_name must be set")
	}
	if strings.TrimSpace(cfg.Models.OutputName) == "" {
		return errors.New("models.output_name must be set")
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		return errors.New("history.path must be set")
	}
	if cfg.History.Retention < 1 {
		return fmt.Errorf("history.retention must be at least 1, got %d", cfg.History.Retention)
	}
	if cfg.History.QueueSize < 1 {
		return fmt.Errorf("history.queue_size must be at least 1, got %d", cfg.History.QueueSize)
	}
	if cfg.History.Workers < 1 {
		return fmt.Errorf("history.workers must be at least 1, got %d", cfg.History.Workers)
	}

	if strings.TrimSpace(cfg.Export.Dir) == "" {
		return errors.New("export.dir must be set")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", cfg.Logging.Level)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Format)) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", cfg.Logging.Format)
	}

	return nil
}
