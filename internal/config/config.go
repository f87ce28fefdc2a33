package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds MediScan configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Models  ModelsConfig  `yaml:"models"`
	History HistoryConfig `yaml:"history"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"` // HTTP listen address, e.g. ":8000"
}

type ModelsConfig struct {
	Dir            string `yaml:"dir"`              // base directory for ONNX model files
	BrainModelPath string `yaml:"brain_model_path"` // relative to Dir when not absolute
	ChestModelPath string `yaml:"chest_model_path"`
	ImageSize      int    `yaml:"image_size"`  // square model input side, e.g. 224
	InputName      string `yaml:"input_name"`  // ONNX graph input tensor name
	OutputName     string `yaml:"output_name"` // ONNX graph output tensor name
	SimulationSeed uint64 `yaml:"simulation_seed"`
}

type HistoryConfig struct {
	Path            string        `yaml:"path"`      // JSON history file path
	Retention       int           `yaml:"retention"` // max stored records
	QueueSize       int           `yaml:"queue_size"`
	Workers         int           `yaml:"workers"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type ExportConfig struct {
	Dir string `yaml:"dir"` // directory where CSV/PDF reports are written
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads configuration from a YAML file.
// If the file doesn't exist, it returns a default config and no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, return default config
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}

	if cfg.Models.Dir == "" {
		cfg.Models.Dir = "models"
	}
	if cfg.Models.BrainModelPath == "" {
		cfg.Models.BrainModelPath = "brain_classifier.onnx"
	}
	if cfg.Models.ChestModelPath == "" {
		cfg.Models.ChestModelPath = "chest_classifier.onnx"
	}
	if cfg.Models.ImageSize == 0 {
		cfg.Models.ImageSize = 224
	}
	if cfg.Models.InputName == "" {
		cfg.Models.InputName = "input"
	}
	if cfg.Models.OutputName == "" {
		cfg.Models.OutputName = "output"
	}

	if cfg.History.Path == "" {
		cfg.History.Path = "data/analysis_history.json"
	}
	if cfg.History.Retention == 0 {
		cfg.History.Retention = 1000
	}
	if cfg.History.QueueSize == 0 {
		cfg.History.QueueSize = 256
	}
	if cfg.History.Workers == 0 {
		cfg.History.Workers = 1
	}
	if cfg.History.ShutdownTimeout == 0 {
		cfg.History.ShutdownTimeout = 2 * time.Second
	}

	if cfg.Export.Dir == "" {
		cfg.Export.Dir = "exports"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}
