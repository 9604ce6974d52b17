package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/tmarks/go-relief-allocator/internal/models"
)

type Config struct {
	Server    ServerConfig
	Worker    WorkerConfig
	DB        DatabaseConfig
	Logging   LoggingConfig
	Inventory InventoryConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	RateLimitRPS   int
	RateLimitBurst int
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// InventoryConfig seeds the on-hand pool the first time the service starts
// with an empty inventory table.
type InventoryConfig struct {
	Initial models.ResourcePool
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "localhost"),
			Port:           getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS:   getEnvInt("RATE_LIMIT_RPS", 5),
			RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 20),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/relief-allocator.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Inventory: InventoryConfig{
			Initial: models.ResourcePool{
				models.ResourceFood:     getEnvInt64("INVENTORY_FOOD", 10000),
				models.ResourceWater:    getEnvInt64("INVENTORY_WATER", 15000),
				models.ResourceMedicine: getEnvInt64("INVENTORY_MEDICINE", 5000),
				models.ResourceShelter:  getEnvInt64("INVENTORY_SHELTER", 3000),
			},
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("rate limit must be at least 1 rps, got %d", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitBurst < c.Server.RateLimitRPS {
		return fmt.Errorf("rate limit burst %d must cover the steady rate %d", c.Server.RateLimitBurst, c.Server.RateLimitRPS)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if f := c.Logging.Format; f != "json" && f != "text" {
		return fmt.Errorf("invalid log format: %s", f)
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", c.Worker.Count)
	}

	for kind, q := range c.Inventory.Initial {
		if q < 0 {
			return fmt.Errorf("initial inventory for %s must not be negative, got %d", kind, q)
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}
