package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  port: 9090
auth:
  jwtSecret: from-file
  tokenTtl: 2h
catalog:
  defaultPageSize: 10
  maxPageSize: 50
infra:
  kafka:
    brokers: ["k1:9092"]
`), 0o600))

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("KAFKA_BROKERS", "a:1, b:2")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Infra.Kafka.Brokers)
	assert.Equal(t, 10, cfg.Catalog.DefaultPageSize)
	// 未出现在文件里的字段保留默认值
	assert.Equal(t, "marketplace.notifications", cfg.Infra.Kafka.NotificationTopic)
}

func TestLoadConfig_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwtSecret")
}

func TestValidate_PageSizes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auth.JWTSecret = "x"
	cfg.Catalog.DefaultPageSize = 200
	assert.Error(t, cfg.Validate())
}
