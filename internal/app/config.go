// Package app holds process-level configuration and logging setup.
package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigEnvVar names the environment variable holding a config file path.
const ConfigEnvVar = "WHITEBOARD_CONFIG"

type Config struct {
	Env      string `yaml:"env"`
	HTTPAddr string `yaml:"httpAddr"`
	LogLevel string `yaml:"logLevel"`

	AllowedOrigins []string `yaml:"allowedOrigins"`

	MaxMessageSize    int64   `yaml:"maxMessageSize"`
	MessagesPerSecond float64 `yaml:"messagesPerSecond"`
	MessageBurst      int     `yaml:"messageBurst"`
	MaxElements       int     `yaml:"maxElements"`
	SendBuffer        int     `yaml:"sendBuffer"`

	ConnectionsPerMinute int `yaml:"connectionsPerMinute"`
	ConnectionBurst      int `yaml:"connectionBurst"`

	RoomIdleTTL     time.Duration `yaml:"roomIdleTTL"` // 0 keeps rooms forever
	SweepInterval   time.Duration `yaml:"sweepInterval"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		Env:                  "dev",
		HTTPAddr:             ":8080",
		LogLevel:             "info",
		AllowedOrigins:       []string{"http://localhost:5173"},
		MaxMessageSize:       64 * 1024,
		MessagesPerSecond:    30,
		MessageBurst:         10,
		MaxElements:          10000,
		SendBuffer:           256,
		ConnectionsPerMinute: 10,
		ConnectionBurst:      5,
		RoomIdleTTL:          time.Hour,
		SweepInterval:        5 * time.Minute,
		ShutdownTimeout:      10 * time.Second,
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file at
// path (if any), then .env, then the process environment.
func LoadConfig(path string) (Config, error) {
	cfg := Defaults()

	if path == "" {
		path = os.Getenv(ConfigEnvVar)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// Load local .env (dev only)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	applyEnv(&cfg)
	return sanitizeConfig(cfg), nil
}

func applyEnv(cfg *Config) {
	cfg.Env = getEnv("APP_ENV", cfg.Env)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	if domains := os.Getenv("DOMAINS"); domains != "" {
		cfg.AllowedOrigins = splitCSV(domains)
	}
	cfg.MaxMessageSize = int64(getEnvInt("MAX_MESSAGE_SIZE", int(cfg.MaxMessageSize)))
	cfg.MessagesPerSecond = getEnvFloat("MESSAGES_PER_SECOND", cfg.MessagesPerSecond)
	cfg.MessageBurst = getEnvInt("MESSAGE_BURST", cfg.MessageBurst)
	cfg.MaxElements = getEnvInt("MAX_ELEMENTS", cfg.MaxElements)
	cfg.SendBuffer = getEnvInt("SEND_BUFFER", cfg.SendBuffer)
	cfg.ConnectionsPerMinute = getEnvInt("CONNECTIONS_PER_MINUTE", cfg.ConnectionsPerMinute)
	cfg.ConnectionBurst = getEnvInt("CONNECTION_BURST", cfg.ConnectionBurst)
	cfg.RoomIdleTTL = getEnvDuration("ROOM_IDLE_TTL", cfg.RoomIdleTTL)
	cfg.SweepInterval = getEnvDuration("SWEEP_INTERVAL", cfg.SweepInterval)
	cfg.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
}

// sanitizeConfig replaces unusable values with defaults
func sanitizeConfig(cfg Config) Config {
	def := Defaults()

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = def.HTTPAddr
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.MessagesPerSecond <= 0 {
		cfg.MessagesPerSecond = def.MessagesPerSecond
	}
	if cfg.MessageBurst <= 0 {
		cfg.MessageBurst = def.MessageBurst
	}
	if cfg.MaxElements < 0 {
		cfg.MaxElements = def.MaxElements
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.ConnectionsPerMinute <= 0 {
		cfg.ConnectionsPerMinute = def.ConnectionsPerMinute
	}
	if cfg.ConnectionBurst <= 0 {
		cfg.ConnectionBurst = def.ConnectionBurst
	}
	if cfg.RoomIdleTTL < 0 {
		cfg.RoomIdleTTL = 0
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	cfg.AllowedOrigins = splitCSV(strings.Join(cfg.AllowedOrigins, ","))
	return cfg
}

// getEnv returns the env var or a default
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getEnvInt parses a non-negative int env var with a fallback
func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			return i
		}
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return def
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90")
func getEnvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d >= 0 {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return def
}

// splitCSV trims and filters a comma-separated list
func splitCSV(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
