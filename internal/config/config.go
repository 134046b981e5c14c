package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	AssetDir       string `envconfig:"ASSET_DIR" default:"./data/assets"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`

	// JWTSecret signs bearer tokens. Empty disables authentication.
	JWTSecret string `envconfig:"JWT_SECRET"`
	// APIKeyHash is the bcrypt hash of the key exchanged for a token.
	APIKeyHash string `envconfig:"API_KEY_HASH"`

	// RefreshRate is the preview frame rate in frames per second.
	RefreshRate      int     `envconfig:"REFRESH_RATE" default:"60"`
	DevicePixelRatio float64 `envconfig:"DEVICE_PIXEL_RATIO" default:"1"`
	MaxCanvasPixels  int     `envconfig:"MAX_CANVAS_PIXELS" default:"16777216"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.RefreshRate <= 0 {
		return fmt.Errorf("REFRESH_RATE must be positive, got %d", c.RefreshRate)
	}
	if c.DevicePixelRatio <= 0 {
		return fmt.Errorf("DEVICE_PIXEL_RATIO must be positive, got %g", c.DevicePixelRatio)
	}
	if c.MaxCanvasPixels <= 0 {
		return fmt.Errorf("MAX_CANVAS_PIXELS must be positive, got %d", c.MaxCanvasPixels)
	}
	if c.JWTSecret != "" && c.APIKeyHash == "" {
		return fmt.Errorf("API_KEY_HASH is required when JWT_SECRET is set")
	}
	return nil
}

// Origins splits AllowedOrigins into trimmed, non-empty entries.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
