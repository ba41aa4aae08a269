// internal/pkg/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "inventory-service", cfg.Service.Name)
	assert.Equal(t, 30*time.Minute, cfg.Reservation.DefaultExpiration.Std())
	assert.Equal(t, time.Minute, cfg.Reservation.SweepInterval.Std())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
service:
  name: inventory-test
  port: 9099
reservation:
  default_expiration: 10m
  sweep_interval: 30s
  sweep_concurrency: 8
  policy_expression: "quantity <= 5"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "inventory-test", cfg.Service.Name)
	assert.Equal(t, 9099, cfg.Service.Port)
	assert.Equal(t, 10*time.Minute, cfg.Reservation.DefaultExpiration.Std())
	assert.Equal(t, 30*time.Second, cfg.Reservation.SweepInterval.Std())
	assert.Equal(t, 8, cfg.Reservation.SweepConcurrency)
	assert.Equal(t, "quantity <= 5", cfg.Reservation.PolicyExpression)
	// 文件没写的段保留默认值
	assert.Equal(t, "localhost:6379", cfg.Infra.Redis.Addr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("MYSQL_DSN", "user:pass@tcp(db:3306)/depot")
	t.Setenv("REDIS_ADDR", "cache:6379")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "user:pass@tcp(db:3306)/depot", cfg.Infra.Mysql.DSN)
	assert.Equal(t, "cache:6379", cfg.Infra.Redis.Addr)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service: [broken"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
