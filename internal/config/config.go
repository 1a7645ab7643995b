package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"studyroom/internal/database"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup database.BackupConfig `yaml:"backup"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Booking struct {
		RoomWindowDays int `yaml:"room_window_days"`
		SeatWindowDays int `yaml:"seat_window_days"`
	} `yaml:"booking"`

	InventoryConfigPath string `yaml:"inventory_config_path"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/studyroom.db"
	}
	if cfg.InventoryConfigPath == "" {
		cfg.InventoryConfigPath = "configs/inventory.yaml"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// RoomWindow is the number of displayed days for room grids.
func (c *Config) RoomWindow() int {
	if c.Booking.RoomWindowDays <= 0 {
		return 7
	}
	return c.Booking.RoomWindowDays
}

// SeatWindow is the number of displayed days for seat grids.
func (c *Config) SeatWindow() int {
	if c.Booking.SeatWindowDays <= 0 {
		return 3
	}
	return c.Booking.SeatWindowDays
}

// ServerPort is the main HTTP listen port.
func (c *Config) ServerPort() int {
	if c.Server.Port <= 0 {
		return 8080
	}
	return c.Server.Port
}
