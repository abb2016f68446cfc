package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"HTTP_PORT", "GRPC_PORT", "DB_DRIVER", "DB_URL", "DB_MAX_CONNS", "REDIS_URL", "KAFKA_BROKERS",
	"JWT_PRIVATE_KEY_PEM", "JWT_PUBLIC_KEY_PEM", "JWT_KEY_ID", "JWT_ALLOW_EPHEMERAL", "BCRYPT_ROUNDS",
	"TOKEN_EXPIRY_HOURS", "SESSION_EXPIRY_DAYS", "FAILED_LOGIN_THRESHOLD", "ACCOUNT_LOCKOUT_MINUTES",
	"RESET_TOKEN_TTL_MINUTES", "HONOR_ENFORCE_LIMIT", "OUTBOX_POLL_SECONDS", "OUTBOX_BATCH_SIZE",
	"OUTBOX_CLAIM_TTL_SECONDS", "OUTBOX_MAX_RETRIES", "WORKER_METRICS_PORT",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, name := range configEnv {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const sampleConfig = `
service:
  id: sinora-test
  http_port: 8181
dependencies:
  database_driver: sqlite
  database_url: file:sinora.db
  redis_url: redis://localhost:6379/1
  kafka_brokers: [kafka-1:9092]
auth:
  token_ttl_hours: 8
  failed_login_threshold: 3
honor:
  enforce_limit: false
outbox:
  batch_size: 25
`

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "sinora-test", cfg.ServiceID)
	assert.Equal(t, 8181, cfg.HTTPPort)
	assert.Equal(t, 9090, cfg.GRPCPort)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, []string{"kafka-1:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 8*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 3, cfg.FailedLoginThreshold)
	assert.False(t, cfg.EnforceHonorLimit)
	assert.Equal(t, 25, cfg.OutboxBatchSize)

	appCfg := cfg.ApplicationConfig()
	assert.Equal(t, cfg.TokenTTL, appCfg.TokenTTL)
	assert.False(t, appCfg.EnforceHonorLimit)
}

func TestLoadConfigEnvWins(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DB_DRIVER", "postgresql")
	t.Setenv("DB_URL", "postgres://sinora@db/sinora")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("HONOR_ENFORCE_LIMIT", "yes")
	t.Setenv("SESSION_EXPIRY_DAYS", "2")
	t.Setenv("BCRYPT_ROUNDS", "not-a-number")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "postgres://sinora@db/sinora", cfg.DatabaseURL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.EnforceHonorLimit)
	assert.Equal(t, 48*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
}

func TestLoadConfigValidation(t *testing.T) {
	clearConfigEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "DB_URL")

	t.Setenv("DB_URL", "file::memory:")
	t.Setenv("DB_DRIVER", "mysql")
	_, err = LoadConfig("")
	require.ErrorContains(t, err, "unsupported database driver")

	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_ALLOW_EPHEMERAL", "false")
	_, err = LoadConfig("")
	require.ErrorContains(t, err, "JWT_PRIVATE_KEY_PEM")

	_, err = LoadConfig(writeConfig(t, "service: [not a map"))
	require.ErrorContains(t, err, "parse config file")
}
