package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"roombook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Cache      CacheConfig      `yaml:"cache"`
	Auth       AuthConfig       `yaml:"auth"`
	Backup     BackupConfig     `yaml:"backup"`
	API        APIConfig        `yaml:"api"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path          string `yaml:"path"`
	BusyTimeoutMS int    `yaml:"busy_timeout_ms"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// CacheConfig controls the read-through cache in front of the user directory and room catalog.
type CacheConfig struct {
	Backend         string `yaml:"backend"` // memory, redis, failover
	TTLSeconds      int    `yaml:"ttl_seconds"`
	CleanupSeconds  int    `yaml:"cleanup_seconds"`
	ConnectAttempts int    `yaml:"connect_attempts"`
}

type AuthConfig struct {
	Mode            string `yaml:"mode"` // jwt, headers, both
	JWTSecret       string `yaml:"jwt_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
	HeaderUsername  string `yaml:"header_username"`
	HeaderRole      string `yaml:"header_role"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled    bool `yaml:"enabled"`
	Port       int  `yaml:"port"`
	Reflection bool `yaml:"reflection"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type MonitoringConfig struct {
	PrometheusEnabled   bool `yaml:"prometheus_enabled"`
	PrometheusPort      int  `yaml:"prometheus_port"`
	HealthCheckInterval int  `yaml:"health_check_interval"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

const (
	AuthModeJWT     = "jwt"
	AuthModeHeaders = "headers"
	AuthModeBoth    = "both"

	CacheBackendMemory   = "memory"
	CacheBackendRedis    = "redis"
	CacheBackendFailover = "failover"
)

func Load(configPath string) (*Config, error) {
	// .env необязателен
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	switch c.Auth.Mode {
	case AuthModeJWT, AuthModeBoth:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required for auth mode %q", c.Auth.Mode)
		}
	case AuthModeHeaders:
	default:
		return fmt.Errorf("unknown auth mode %q", c.Auth.Mode)
	}

	switch c.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendRedis, CacheBackendFailover:
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address is required for cache backend %q", c.Cache.Backend)
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}

	if c.Backup.Enabled && c.Backup.StoragePath == "" {
		return errors.New("backup.storage_path is required when backups are enabled")
	}

	if c.API.HTTP.Port == c.Monitoring.PrometheusPort && c.Monitoring.PrometheusEnabled {
		return errors.New("api.http.port and monitoring.prometheus_port must differ")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 5003
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 5013
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = models.RateLimitBurst
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Monitoring.HealthCheckInterval == 0 {
		c.Monitoring.HealthCheckInterval = 15
	}
	if c.Database.BusyTimeoutMS == 0 {
		c.Database.BusyTimeoutMS = 5000
	}
	if c.Backup.Schedule == "" {
		c.Backup.Schedule = "24h"
	}

	c.Auth.Mode = strings.ToLower(strings.TrimSpace(c.Auth.Mode))
	if c.Auth.Mode == "" {
		c.Auth.Mode = AuthModeBoth
	}
	if c.Auth.TokenTTLMinutes == 0 {
		c.Auth.TokenTTLMinutes = models.DefaultTokenTTL
	}
	if c.Auth.HeaderUsername == "" {
		c.Auth.HeaderUsername = "X-User-Name"
	}
	if c.Auth.HeaderRole == "" {
		c.Auth.HeaderRole = "X-User-Role"
	}

	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheBackendMemory
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = models.DefaultCacheTTL
	}
	if c.Cache.CleanupSeconds == 0 {
		c.Cache.CleanupSeconds = models.DefaultCacheCleanup
	}
	if c.Cache.ConnectAttempts == 0 {
		c.Cache.ConnectAttempts = 3
	}
}
