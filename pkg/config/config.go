package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Server defaults
const (
	DefaultPort      = 8080
	DefaultStorePath = "data/master_load.csv"
	DefaultModelsDir = "trained_models"
	DefaultCacheDir  = "data/forecast-cache"
)

// HTTP server timeouts
const (
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 60 * time.Second
	ShutdownTimeout    = 30 * time.Second
)

// Dashboard query limits
const (
	// MaxDashboardRangeDays caps how many days one dashboard query may span.
	MaxDashboardRangeDays = 30
)

// Forecast defaults
const (
	// HorizonHours is the length of the window masked before forecasting.
	HorizonHours = 24

	// CacheTTL bounds how long a cached forecast result stays valid.
	CacheTTL = 24 * time.Hour

	ForecastTimeout = 2 * time.Minute
)

// WebSocket configuration
const (
	WSReadBufferSize  = 1024
	WSWriteBufferSize = 1024
	WSBroadcastBuffer = 256
	WSChannelBuffer   = 10
	WSWriteDeadline   = 10 * time.Second
	WSReadDeadline    = 60 * time.Second
	WSPingInterval    = 30 * time.Second
)

// Config holds environment-driven settings for the dashboard server.
type Config struct {
	StorePath string
	ModelsDir string
	CacheDir  string
	Port      int
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		StorePath: DefaultStorePath,
		ModelsDir: DefaultModelsDir,
		CacheDir:  DefaultCacheDir,
		Port:      DefaultPort,
	}

	if path := os.Getenv("LOADBOARD_STORE_PATH"); path != "" {
		cfg.StorePath = path
	}
	if dir := os.Getenv("LOADBOARD_MODELS_DIR"); dir != "" {
		cfg.ModelsDir = dir
	}
	if dir := os.Getenv("LOADBOARD_CACHE_DIR"); dir != "" {
		cfg.CacheDir = dir
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
		cfg.Port = port
	}

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
