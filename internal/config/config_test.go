package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nu-its/authgate/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.App.Env)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "memory", cfg.Storage.Driver)
	require.Equal(t, "memory", cfg.Cache.Kind)
	require.Equal(t, 6, cfg.Auth.Digits)
	require.Equal(t, 8, cfg.Auth.MaxAttempts)
	require.Equal(t, 5, cfg.Auth.RateLimitPerHour)
	require.Equal(t, "random", cfg.Auth.CodeStrategy)
	require.Equal(t, 32, cfg.Token.Bytes)

	require.Equal(t, 15*time.Minute, cfg.ChallengeTTL())
	require.Equal(t, 15*time.Minute, cfg.LockWindow())
	require.Equal(t, time.Hour, cfg.SessionTTL())
	require.Equal(t, time.Hour, cfg.CleanupInterval())
}

func TestLoad_YAMLOverrides(t *testing.T) {
	path := writeConfig(t, `
app:
  env: staging
  log_level: debug
server:
  addr: ":9090"
auth:
  digits: 8
  expires_in_minutes: 5
  max_attempts: 3
  code_strategy: fixed
  fixed_seed: "123456"
session:
  ttl: 30m
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, "staging", cfg.App.Env)
	require.Equal(t, ":9090", cfg.Server.Addr)
	require.Equal(t, 8, cfg.Auth.Digits)
	require.Equal(t, 3, cfg.Auth.MaxAttempts)
	require.Equal(t, "fixed", cfg.Auth.CodeStrategy)
	require.Equal(t, 5*time.Minute, cfg.ChallengeTTL())
	require.Equal(t, 30*time.Minute, cfg.SessionTTL())
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
`)
	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("AUTH_DIGITS", "4")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.Server.Addr)
	require.Equal(t, 4, cfg.Auth.Digits)
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: postgres
`)
	_, err := config.Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "storage.dsn")
}

func TestLoad_UnknownDriver(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: cassandra
`)
	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoad_FixedStrategyForbiddenInProd(t *testing.T) {
	path := writeConfig(t, `
app:
  env: prod
auth:
  code_strategy: fixed
token:
  hmac_key: k
session:
  secret: s
`)
	_, err := config.Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "fixed code strategy")
}

func TestLoad_ProdRequiresSecrets(t *testing.T) {
	path := writeConfig(t, `
app:
  env: prod
`)
	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load("/does/not/exist.yaml")
	require.Error(t, err)
}
