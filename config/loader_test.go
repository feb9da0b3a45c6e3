// 配置加载器与校验测试。
package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "memory", cfg.Router.ActivityBackend)
	assert.NoError(t, cfg.Validate())
}

func TestLoader_LoadFromYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
server:
  http_port: 8888
  read_timeout: 60s
  api_keys: ["k1", "k2"]
  cors_allowed_origins:
    - https://app.example.com

router:
  activity_backend: redis
  activity_capacity: 50

redis:
  enabled: true
  addr: "redis.example.com:6379"
  password: "secret"
  db: 1

database:
  driver: sqlite
  name: /var/lib/agentrouter/router.db
  auto_migrate: true

log:
  level: "debug"
  format: "console"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Server.APIKeys)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.CORSAllowedOrigins)
	// 未出现在文件中的字段保留默认值
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)

	assert.Equal(t, "redis", cfg.Router.ActivityBackend)
	assert.Equal(t, 50, cfg.Router.ActivityCapacity)

	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis.example.com:6379", cfg.Redis.Addr)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.Equal(t, "agentrouter:", cfg.Redis.KeyPrefix)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, cfg.Database.AutoMigrate)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoader_LoadFromEnv(t *testing.T) {
	t.Setenv("AGENTROUTER_SERVER_HTTP_PORT", "7777")
	t.Setenv("AGENTROUTER_SERVER_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("AGENTROUTER_SERVER_API_KEYS", "a, b,,c")
	t.Setenv("AGENTROUTER_SERVER_ALLOW_QUERY_API_KEY", "true")
	t.Setenv("AGENTROUTER_ROUTER_WEBSOCKET_READ_LIMIT", "1024")
	t.Setenv("AGENTROUTER_REDIS_ADDR", "env-redis:6379")
	t.Setenv("AGENTROUTER_TELEMETRY_SAMPLE_RATE", "0.5")
	t.Setenv("AGENTROUTER_LOG_LEVEL", "warn")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.HTTPPort)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Server.APIKeys)
	assert.True(t, cfg.Server.AllowQueryAPIKey)
	assert.Equal(t, int64(1024), cfg.Router.WebSocketReadLimit)
	assert.Equal(t, "env-redis:6379", cfg.Redis.Addr)
	assert.InDelta(t, 0.5, cfg.Telemetry.SampleRate, 1e-9)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  http_port: 8888\n"), 0644))
	t.Setenv("AGENTROUTER_SERVER_HTTP_PORT", "9999")

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.HTTPPort)
}

func TestLoader_CustomPrefix(t *testing.T) {
	t.Setenv("ROUTER_TEST_SERVER_HTTP_PORT", "6060")

	cfg, err := NewLoader().WithEnvPrefix("ROUTER_TEST").Load()
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.HTTPPort)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath(filepath.Join(t.TempDir(), "nope.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestLoader_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: [unclosed"), 0644))

	_, err := NewLoader().WithConfigPath(configPath).Load()
	assert.Error(t, err)
}

func TestLoader_InvalidEnvValue(t *testing.T) {
	t.Setenv("AGENTROUTER_SERVER_HTTP_PORT", "not-a-number")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AGENTROUTER_SERVER_HTTP_PORT")
}

func TestLoader_WithValidator(t *testing.T) {
	boom := errors.New("boom")

	_, err := NewLoader().WithValidator(func(*Config) error { return boom }).Load()
	assert.ErrorIs(t, err, boom)

	cfg, err := NewLoader().WithValidator((*Config).Validate).Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestMustLoad_Panics(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: [unclosed"), 0644))

	assert.Panics(t, func() { MustLoad(configPath) })
}

// --- Validate 测试 ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad http port", func(c *Config) { c.Server.HTTPPort = 0 }, "invalid HTTP port"},
		{"metrics port clash", func(c *Config) { c.Server.MetricsPort = c.Server.HTTPPort }, "metrics port must differ"},
		{"metrics disabled", func(c *Config) { c.Server.MetricsPort = 0 }, ""},
		{"half tls", func(c *Config) { c.Server.TLSCertFile = "cert.pem" }, "must be set together"},
		{"negative rate", func(c *Config) { c.Server.RateLimitRPS = -1 }, "must not be negative"},
		{"rate without burst", func(c *Config) { c.Server.RateLimitBurst = 0 }, "rate_limit_burst"},
		{"rate limit off", func(c *Config) { c.Server.RateLimitRPS = 0; c.Server.RateLimitBurst = 0 }, ""},
		{"unknown backend", func(c *Config) { c.Router.ActivityBackend = "disk" }, "activity_backend must be one of"},
		{"redis backend without redis", func(c *Config) { c.Router.ActivityBackend = "redis" }, "requires redis.enabled"},
		{"zero capacity", func(c *Config) { c.Router.ActivityCapacity = 0 }, "activity_capacity"},
		{"redis without addr", func(c *Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }, "redis.addr"},
		{"bad driver", func(c *Config) { c.Database.Driver = "oracle" }, "unsupported database driver"},
		{"idle over open", func(c *Config) { c.Database.MaxIdleConns = 100 }, "max_idle_conns"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log format"},
		{"bad sample rate", func(c *Config) { c.Telemetry.SampleRate = 2 }, "sample_rate"},
		{"short jwt secret", func(c *Config) { c.JWT.Secret = "short" }, "jwt secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Validate_CollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.HTTPPort = -1
	cfg.Log.Level = "loud"
	cfg.Database.Driver = "oracle"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
	assert.Contains(t, err.Error(), "log level")
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestServerConfig_TLSEnabled(t *testing.T) {
	assert.False(t, ServerConfig{}.TLSEnabled())
	assert.False(t, ServerConfig{TLSCertFile: "c"}.TLSEnabled())
	assert.True(t, ServerConfig{TLSCertFile: "c", TLSKeyFile: "k"}.TLSEnabled())
}

func TestDatabaseConfig_DataSource(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{"explicit dsn wins", DatabaseConfig{Driver: "mysql", DSN: "explicit", Host: "ignored"}, "explicit"},
		{"postgres", DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, Name: "router", User: "u", Password: "p", SSLMode: "disable"},
			"postgres://u:p@db:5432/router?sslmode=disable"},
		{"postgres default ssl", DatabaseConfig{Driver: "postgresql", Host: "db", Port: 5432, Name: "router", User: "u", Password: "p"},
			"postgres://u:p@db:5432/router?sslmode=require"},
		{"mysql", DatabaseConfig{Driver: "mysql", Host: "db", Port: 3306, Name: "router", User: "u", Password: "p"},
			"u:p@tcp(db:3306)/router?parseTime=true&multiStatements=true"},
		{"sqlite", DatabaseConfig{Driver: "sqlite", Name: "router.db"}, "file:router.db?_pragma=foreign_keys(1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.DataSource()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := (&DatabaseConfig{Driver: "sqlite"}).DataSource()
	assert.ErrorContains(t, err, "sqlite database path is required")
	_, err = (&DatabaseConfig{Driver: "oracle"}).DataSource()
	assert.ErrorContains(t, err, "unsupported database driver")
}
