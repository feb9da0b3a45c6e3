package config

import (
	"fmt"
	"slices"
	"strings"
)

var (
	validActivityBackends = []string{"memory", "redis"}
	validDrivers          = []string{"postgres", "postgresql", "mysql", "sqlite", "sqlite3"}
	validLogLevels        = []string{"debug", "info", "warn", "error"}
	validLogFormats       = []string{"json", "console"}
)

// Validate 验证配置，一次返回所有问题
func (c *Config) Validate() error {
	var errs []string

	// 服务器配置
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		errs = append(errs, "invalid metrics port")
	}
	if c.Server.MetricsPort != 0 && c.Server.MetricsPort == c.Server.HTTPPort {
		errs = append(errs, "metrics port must differ from HTTP port")
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		errs = append(errs, "tls_cert_file and tls_key_file must be set together")
	}
	if c.Server.RateLimitRPS < 0 || c.Server.RateLimitBurst < 0 {
		errs = append(errs, "rate limit values must not be negative")
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst == 0 {
		errs = append(errs, "rate_limit_burst must be positive when rate limiting is enabled")
	}

	// 路由配置
	if !slices.Contains(validActivityBackends, c.Router.ActivityBackend) {
		errs = append(errs, fmt.Sprintf("activity_backend must be one of %v", validActivityBackends))
	}
	if c.Router.ActivityBackend == "redis" && !c.Redis.Enabled {
		errs = append(errs, "activity_backend redis requires redis.enabled")
	}
	if c.Router.ActivityCapacity <= 0 {
		errs = append(errs, "activity_capacity must be positive")
	}
	if c.Router.WebSocketReadLimit <= 0 {
		errs = append(errs, "websocket_read_limit must be positive")
	}

	// Redis 配置
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, "redis.addr is required when redis is enabled")
	}

	// 数据库配置
	if !slices.Contains(validDrivers, strings.ToLower(c.Database.Driver)) {
		errs = append(errs, fmt.Sprintf("unsupported database driver: %q", c.Database.Driver))
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = append(errs, "database max_idle_conns exceeds max_open_conns")
	}

	// 日志配置
	if !slices.Contains(validLogLevels, c.Log.Level) {
		errs = append(errs, fmt.Sprintf("log level must be one of %v", validLogLevels))
	}
	if !slices.Contains(validLogFormats, c.Log.Format) {
		errs = append(errs, fmt.Sprintf("log format must be one of %v", validLogFormats))
	}

	// 遥测配置
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, "telemetry sample_rate must be between 0 and 1")
	}
	if c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "" {
		errs = append(errs, "telemetry otlp_endpoint is required when telemetry is enabled")
	}

	// JWT 配置
	if c.JWT.Secret != "" && len(c.JWT.Secret) < 32 {
		errs = append(errs, "jwt secret must be at least 32 bytes")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// TLSEnabled 是否以 HTTPS 启动
func (s ServerConfig) TLSEnabled() bool {
	return s.TLSCertFile != "" && s.TLSKeyFile != ""
}
