package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bps3275/sinora/internal/adapters/database"
	"github.com/bps3275/sinora/internal/application"
)

// Config is the resolved runtime configuration shared by the API, the worker and sinoractl.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseDriver string
	DatabaseURL    string
	MaxDBConns     int32
	RedisURL       string
	KafkaBrokers   []string
	KafkaTopic     string

	JWTPrivateKeyPEM  string
	JWTPublicKeyPEM   string
	JWTKeyID          string
	AllowEphemeralJWT bool

	BcryptCost int

	TokenTTL             time.Duration
	SessionTTL           time.Duration
	FailedLoginThreshold int
	LockoutDuration      time.Duration
	ResetTokenTTL        time.Duration
	ResetRateLimit       int
	ResetRateLimitWindow time.Duration

	EnforceHonorLimit bool

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxClaimTTL     time.Duration
	OutboxMaxRetries   int

	WorkerMetricsPort int
}

// configFile mirrors configs/default.yaml.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		DatabaseDriver string   `yaml:"database_driver"`
		DatabaseURL    string   `yaml:"database_url"`
		RedisURL       string   `yaml:"redis_url"`
		KafkaBrokers   []string `yaml:"kafka_brokers"`
		KafkaTopic     string   `yaml:"kafka_topic_prefix"`
	} `yaml:"dependencies"`
	Auth struct {
		TokenTTLHours        int `yaml:"token_ttl_hours"`
		SessionTTLDays       int `yaml:"session_ttl_days"`
		FailedLoginThreshold int `yaml:"failed_login_threshold"`
		LockoutMinutes       int `yaml:"lockout_minutes"`
		ResetTokenTTLMinutes int `yaml:"reset_token_ttl_minutes"`
		BcryptCost           int `yaml:"bcrypt_cost"`
	} `yaml:"auth"`
	Honor struct {
		EnforceLimit *bool `yaml:"enforce_limit"`
	} `yaml:"honor"`
	Outbox struct {
		PollSeconds     int `yaml:"poll_seconds"`
		BatchSize       int `yaml:"batch_size"`
		ClaimTTLSeconds int `yaml:"claim_ttl_seconds"`
		MaxRetries      int `yaml:"max_retries"`
	} `yaml:"outbox"`
	Worker struct {
		MetricsPort int `yaml:"metrics_port"`
	} `yaml:"worker"`
}

func defaultConfig() Config {
	return Config{
		ServiceID:            "sinora",
		HTTPPort:             8080,
		GRPCPort:             9090,
		DatabaseDriver:       database.DriverPostgres,
		MaxDBConns:           20,
		KafkaTopic:           "sinora.",
		JWTKeyID:             "sinora-key-1",
		AllowEphemeralJWT:    true,
		BcryptCost:           10,
		TokenTTL:             24 * time.Hour,
		SessionTTL:           7 * 24 * time.Hour,
		FailedLoginThreshold: 5,
		LockoutDuration:      15 * time.Minute,
		ResetTokenTTL:        15 * time.Minute,
		ResetRateLimit:       5,
		ResetRateLimitWindow: 15 * time.Minute,
		EnforceHonorLimit:    true,
		OutboxPollInterval:   2 * time.Second,
		OutboxBatchSize:      100,
		OutboxClaimTTL:       30 * time.Second,
		OutboxMaxRetries:     5,
		WorkerMetricsPort:    9102,
	}
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		f.apply(&cfg)
	}

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.DatabaseDriver = envOrDefault("DB_DRIVER", cfg.DatabaseDriver)
	cfg.DatabaseURL = envOrDefault("DB_URL", cfg.DatabaseURL)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.JWTPrivateKeyPEM = envOrDefault("JWT_PRIVATE_KEY_PEM", cfg.JWTPrivateKeyPEM)
	cfg.JWTPublicKeyPEM = envOrDefault("JWT_PUBLIC_KEY_PEM", cfg.JWTPublicKeyPEM)
	cfg.JWTKeyID = envOrDefault("JWT_KEY_ID", cfg.JWTKeyID)
	cfg.AllowEphemeralJWT = envBool("JWT_ALLOW_EPHEMERAL", cfg.AllowEphemeralJWT)
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)
	cfg.FailedLoginThreshold = envInt("FAILED_LOGIN_THRESHOLD", cfg.FailedLoginThreshold)
	cfg.EnforceHonorLimit = envBool("HONOR_ENFORCE_LIMIT", cfg.EnforceHonorLimit)

	cfg.TokenTTL = time.Duration(envInt("TOKEN_EXPIRY_HOURS", int(cfg.TokenTTL.Hours()))) * time.Hour
	cfg.SessionTTL = time.Duration(envInt("SESSION_EXPIRY_DAYS", int(cfg.SessionTTL.Hours()/24))) * 24 * time.Hour
	cfg.LockoutDuration = time.Duration(envInt("ACCOUNT_LOCKOUT_MINUTES", int(cfg.LockoutDuration.Minutes()))) * time.Minute
	cfg.ResetTokenTTL = time.Duration(envInt("RESET_TOKEN_TTL_MINUTES", int(cfg.ResetTokenTTL.Minutes()))) * time.Minute
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxClaimTTL = time.Duration(envInt("OUTBOX_CLAIM_TTL_SECONDS", int(cfg.OutboxClaimTTL.Seconds()))) * time.Second
	cfg.OutboxMaxRetries = envInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)
	cfg.WorkerMetricsPort = envInt("WORKER_METRICS_PORT", cfg.WorkerMetricsPort)

	driver, err := database.NormalizeDriver(cfg.DatabaseDriver)
	if err != nil {
		return Config{}, err
	}
	cfg.DatabaseDriver = driver
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL")
	}
	if (cfg.JWTPrivateKeyPEM == "" || cfg.JWTPublicKeyPEM == "") && !cfg.AllowEphemeralJWT {
		return Config{}, fmt.Errorf("missing JWT_PRIVATE_KEY_PEM or JWT_PUBLIC_KEY_PEM")
	}
	return cfg, nil
}

func (f configFile) apply(cfg *Config) {
	if f.Service.ID != "" {
		cfg.ServiceID = f.Service.ID
	}
	if f.Service.HTTPPort > 0 {
		cfg.HTTPPort = f.Service.HTTPPort
	}
	if f.Service.GRPCPort > 0 {
		cfg.GRPCPort = f.Service.GRPCPort
	}
	if f.Dependencies.DatabaseDriver != "" {
		cfg.DatabaseDriver = f.Dependencies.DatabaseDriver
	}
	if f.Dependencies.DatabaseURL != "" {
		cfg.DatabaseURL = f.Dependencies.DatabaseURL
	}
	if f.Dependencies.RedisURL != "" {
		cfg.RedisURL = f.Dependencies.RedisURL
	}
	if len(f.Dependencies.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
	}
	if f.Dependencies.KafkaTopic != "" {
		cfg.KafkaTopic = f.Dependencies.KafkaTopic
	}
	if f.Auth.TokenTTLHours > 0 {
		cfg.TokenTTL = time.Duration(f.Auth.TokenTTLHours) * time.Hour
	}
	if f.Auth.SessionTTLDays > 0 {
		cfg.SessionTTL = time.Duration(f.Auth.SessionTTLDays) * 24 * time.Hour
	}
	if f.Auth.FailedLoginThreshold > 0 {
		cfg.FailedLoginThreshold = f.Auth.FailedLoginThreshold
	}
	if f.Auth.LockoutMinutes > 0 {
		cfg.LockoutDuration = time.Duration(f.Auth.LockoutMinutes) * time.Minute
	}
	if f.Auth.ResetTokenTTLMinutes > 0 {
		cfg.ResetTokenTTL = time.Duration(f.Auth.ResetTokenTTLMinutes) * time.Minute
	}
	if f.Auth.BcryptCost > 0 {
		cfg.BcryptCost = f.Auth.BcryptCost
	}
	if f.Honor.EnforceLimit != nil {
		cfg.EnforceHonorLimit = *f.Honor.EnforceLimit
	}
	if f.Outbox.PollSeconds > 0 {
		cfg.OutboxPollInterval = time.Duration(f.Outbox.PollSeconds) * time.Second
	}
	if f.Outbox.BatchSize > 0 {
		cfg.OutboxBatchSize = f.Outbox.BatchSize
	}
	if f.Outbox.ClaimTTLSeconds > 0 {
		cfg.OutboxClaimTTL = time.Duration(f.Outbox.ClaimTTLSeconds) * time.Second
	}
	if f.Outbox.MaxRetries > 0 {
		cfg.OutboxMaxRetries = f.Outbox.MaxRetries
	}
	if f.Worker.MetricsPort > 0 {
		cfg.WorkerMetricsPort = f.Worker.MetricsPort
	}
}

// ApplicationConfig projects the settings the service layer needs.
func (c Config) ApplicationConfig() application.Config {
	return application.Config{
		TokenTTL:             c.TokenTTL,
		SessionTTL:           c.SessionTTL,
		FailedLoginThreshold: c.FailedLoginThreshold,
		LockoutDuration:      c.LockoutDuration,
		ResetTokenTTL:        c.ResetTokenTTL,
		ResetRateLimit:       c.ResetRateLimit,
		ResetRateLimitWindow: c.ResetRateLimitWindow,
		EnforceHonorLimit:    c.EnforceHonorLimit,
	}
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt falls back on empty or invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return fallback
	}
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
