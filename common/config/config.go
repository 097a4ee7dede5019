// Package config loads the skywatch YAML file and fills in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Upload  UploadConfig  `yaml:"upload"`
	Status  StatusConfig  `yaml:"status"`
	Metrics MetricsConfig `yaml:"metrics"`
	Report  ReportConfig  `yaml:"report"`
	Logging LoggingConfig `yaml:"logging"`
}

type SerialConfig struct {
	Device string `yaml:"device"`
	// BaudCandidates are probed in order; the last one is the fallback.
	BaudCandidates []int         `yaml:"baud_candidates"`
	ProbeWindow    time.Duration `yaml:"probe_window"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	// Talker selects the GSV prefix, e.g. "GP" or "GN".
	Talker string `yaml:"talker"`
}

type UploadConfig struct {
	// URL is the collector endpoint; empty disables uploads.
	URL           string        `yaml:"url"`
	Interval      time.Duration `yaml:"interval"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxSatellites int           `yaml:"max_satellites"`
}

type StatusConfig struct {
	Enable bool `yaml:"enable"`
	// Pins are periph GPIO names, e.g. "GPIO5" (header pin P1_29).
	RedPin   string `yaml:"red_pin"`
	GreenPin string `yaml:"green_pin"`
	BluePin  string `yaml:"blue_pin"`
}

type MetricsConfig struct {
	// Bind is the listen address for /metrics; empty disables it.
	Bind string `yaml:"bind"`
}

type ReportConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func Default() Config {
	return Config{
		Serial: SerialConfig{
			Device:         "/dev/ttyACM0",
			BaudCandidates: []int{4800, 9600, 38400, 115200},
			ProbeWindow:    5 * time.Second,
			ReadTimeout:    50 * time.Millisecond,
			PollInterval:   10 * time.Millisecond,
			Talker:         "GP",
		},
		Upload: UploadConfig{
			Interval:      time.Second,
			Timeout:       5 * time.Second,
			MaxSatellites: 5,
		},
		Status: StatusConfig{
			RedPin:   "GPIO5",
			GreenPin: "GPIO6",
			BluePin:  "GPIO4",
		},
		Report: ReportConfig{
			Interval: 3 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load layers the YAML file at path over Default. An empty path means
// defaults only.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, validate(cfg)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// GSVPrefix is the sentence prefix for the configured talker.
func (c Config) GSVPrefix() string {
	return "$" + c.Serial.Talker + "GSV"
}

func validate(cfg Config) error {
	if cfg.Serial.Device == "" {
		return errors.New("serial.device must be set")
	}
	if len(cfg.Serial.BaudCandidates) == 0 {
		return errors.New("serial.baud_candidates must not be empty")
	}
	for _, b := range cfg.Serial.BaudCandidates {
		if b <= 0 {
			return fmt.Errorf("serial.baud_candidates: invalid rate %d", b)
		}
	}
	if cfg.Serial.ProbeWindow <= 0 {
		return errors.New("serial.probe_window must be positive")
	}
	if cfg.Serial.ReadTimeout <= 0 {
		return errors.New("serial.read_timeout must be positive")
	}
	if cfg.Serial.PollInterval <= 0 {
		return errors.New("serial.poll_interval must be positive")
	}
	if len(cfg.Serial.Talker) != 2 {
		return fmt.Errorf("serial.talker must be two letters, got %q", cfg.Serial.Talker)
	}
	if cfg.Upload.URL != "" && cfg.Upload.Interval <= 0 {
		return errors.New("upload.interval must be positive")
	}
	if cfg.Upload.MaxSatellites < 0 {
		return errors.New("upload.max_satellites must not be negative")
	}
	if cfg.Report.Interval <= 0 {
		return errors.New("report.interval must be positive")
	}
	if cfg.Status.Enable && (cfg.Status.RedPin == "" || cfg.Status.GreenPin == "" || cfg.Status.BluePin == "") {
		return errors.New("status pins must be set when status is enabled")
	}
	if _, err := logrus.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}
