package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/agentrouter/agent"
	"github.com/BaSui01/agentrouter/agent/activity"
	"github.com/BaSui01/agentrouter/agent/analysis"
	"github.com/BaSui01/agentrouter/agent/skills"
	"github.com/BaSui01/agentrouter/api/handlers"
	"github.com/BaSui01/agentrouter/config"
	"github.com/BaSui01/agentrouter/internal/cache"
	"github.com/BaSui01/agentrouter/internal/database"
	"github.com/BaSui01/agentrouter/internal/metrics"
	"github.com/BaSui01/agentrouter/internal/server"
	"github.com/BaSui01/agentrouter/internal/store"
	"github.com/BaSui01/agentrouter/internal/telemetry"
)

const (
	// statsInterval 是连接池与缓存指标的采样间隔
	statsInterval = 15 * time.Second
	// txAttempts 写事务遇到死锁等瞬时错误时的最大尝试次数
	txAttempts = 3
)

// publicPaths 不需要认证
var publicPaths = []string{"/health", "/healthz", "/ready", "/readyz", "/version", "/metrics"}

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 AgentRouter 的主服务器
type Server struct {
	cfg       *config.Config
	logger    *zap.Logger
	telemetry *telemetry.Providers

	// 指标
	promRegistry *prometheus.Registry
	collector    *metrics.Collector
	requests     *handlers.RequestStats

	// 存储，未配置或不可用时为 nil
	db    *database.Pool
	repo  *store.Repository
	cache *cache.Manager

	// Agents
	registry     *agent.Registry
	tracker      *activity.Tracker
	orchestrator *agent.Orchestrator
	health       *handlers.HealthHandler

	// 服务器管理器
	httpManager    *server.Manager
	metricsManager *server.Manager

	bgCancel context.CancelFunc
	bg       *errgroup.Group
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, logger *zap.Logger, providers *telemetry.Providers) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:       cfg,
		logger:    logger,
		telemetry: providers,
		requests:  &handlers.RequestStats{},
	}
}

// =============================================================================
// 🔧 初始化
// =============================================================================

// Init builds metrics, storage and the agent graph. Database and Redis
// failures only disable the features that need them, unless the activity
// log is configured to live in Redis.
func (s *Server) Init(ctx context.Context) error {
	s.promRegistry = prometheus.NewRegistry()
	s.promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.collector = metrics.NewCollectorWithRegistry(s.cfg.Router.MetricsNamespace, s.promRegistry, s.logger)
	s.health = handlers.NewHealthHandler(s.logger)

	s.initDatabase(ctx)
	if err := s.initCache(); err != nil {
		return err
	}
	s.initAgents()

	s.logger.Info("components initialized",
		zap.Bool("database", s.repo != nil),
		zap.Bool("redis", s.cache != nil),
		zap.Int("sub_agents", len(s.registry.SubAgents())),
	)
	return nil
}

func (s *Server) initDatabase(ctx context.Context) {
	dbCfg := s.cfg.Database
	dsn, err := dbCfg.DataSource()
	if err != nil {
		s.logger.Warn("database not configured, storage endpoints disabled", zap.Error(err))
		return
	}

	pm, err := database.Open(database.Config{
		Driver: dbCfg.Driver,
		DSN:    dsn,
		Pool: database.PoolConfig{
			MaxOpenConns:    dbCfg.MaxOpenConns,
			MaxIdleConns:    dbCfg.MaxIdleConns,
			ConnMaxLifetime: dbCfg.ConnMaxLifetime,
		},
	}, s.logger)
	if err != nil {
		s.logger.Warn("database not available, storage endpoints disabled", zap.Error(err))
		return
	}

	repo := store.NewRepository(pm.DB(), s.logger, store.WithTransactor(pm, txAttempts))
	if dbCfg.AutoMigrate {
		if err := repo.AutoMigrate(ctx); err != nil {
			s.logger.Error("database auto-migrate failed, storage endpoints disabled", zap.Error(err))
			_ = pm.Close()
			return
		}
	}

	s.db, s.repo = pm, repo
	s.health.RegisterCheck(handlers.NewPingCheck("database", pm.Ping))
	s.logger.Info("database connected", zap.String("driver", dbCfg.Driver))
}

func (s *Server) initCache() error {
	if !s.cfg.Redis.Enabled {
		return nil
	}
	rc := s.cfg.Redis
	cfg := cache.DefaultConfig()
	cfg.Addr = rc.Addr
	cfg.Password = rc.Password
	cfg.DB = rc.DB
	cfg.KeyPrefix = rc.KeyPrefix
	cfg.PoolSize = rc.PoolSize
	cfg.MinIdleConns = rc.MinIdleConns
	cfg.TLSEnabled = rc.TLSEnabled

	m, err := cache.NewManager(cfg, s.logger)
	if err != nil {
		if s.cfg.Router.ActivityBackend == "redis" {
			return fmt.Errorf("activity backend requires redis: %w", err)
		}
		s.logger.Warn("redis not available", zap.Error(err))
		return nil
	}
	s.cache = m
	s.health.RegisterCheck(handlers.NewPingCheck("redis", m.Ping))
	return nil
}

func (s *Server) initAgents() {
	var st activity.Store
	switch {
	case s.cfg.Router.ActivityBackend == "redis" && s.cache != nil:
		st = activity.NewRedisStore(s.cache, s.cfg.Router.ActivityCapacity)
	default:
		st = activity.NewMemoryStore(s.cfg.Router.ActivityCapacity)
	}

	s.registry = agent.NewDefaultRegistry(s.logger)
	s.tracker = activity.NewTracker(st, s.logger)
	s.orchestrator = agent.NewOrchestrator(s.registry, s.logger,
		agent.WithActivity(s.tracker),
		agent.WithDelegationMetrics(s.collector),
		agent.WithTracer(otel.Tracer("agentrouter/agent")),
	)
}

// =============================================================================
// 🌐 路由与中间件
// =============================================================================

// Handler returns the full middleware chain over every route. ctx bounds the
// rate limiter's cleanup goroutine.
func (s *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()

	// nil 接口而非 nil 指针，处理器据此返回 503
	var (
		chats handlers.ChatStore
		tasks handlers.TaskStore
	)
	sysCfg := handlers.SystemConfig{
		Version:  Version,
		Activity: s.tracker,
		Requests: s.requests,
	}
	if s.repo != nil {
		chats, tasks = s.repo, s.repo
		sysCfg.Conversations = s.repo
		sysCfg.Database = s.repo
	}

	for _, h := range []interface{ Register(*http.ServeMux) }{
		s.health,
		handlers.NewSystemHandler(s.registry, sysCfg, s.logger),
		handlers.NewAgentHandler(s.registry, s.orchestrator, skills.NewMatcher(s.logger), s.collector, s.logger),
		handlers.NewAnalysisHandler(s.registry, analysis.NewAnalyzer(s.logger), s.collector, s.logger),
		handlers.NewChatHandler(chats, s.orchestrator, s.registry, s.logger),
		handlers.NewTaskHandler(tasks, s.logger),
		handlers.NewWebSocketHandler(s.orchestrator, s.collector, s.webSocketConfig(), s.logger),
	} {
		h.Register(mux)
	}
	mux.HandleFunc("GET /version", s.health.HandleVersion(Version, BuildTime, GitCommit))
	if s.cfg.Server.MetricsPort == 0 {
		mux.Handle("GET /metrics", s.metricsHandler())
	}

	srv := s.cfg.Server
	return Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		OTelTracing(),
		RequestLogger(s.logger),
		CORS(srv.CORSAllowedOrigins),
		RateLimiter(ctx, float64(srv.RateLimitRPS), srv.RateLimitBurst, s.logger),
		APIKeyAuth(srv.APIKeys, publicPaths, srv.AllowQueryAPIKey, s.logger),
		JWTAuth(s.cfg.JWT, publicPaths, s.logger),
		MetricsMiddleware(s.collector, s.requests),
	)
}

func (s *Server) metricsHandler() http.Handler {
	return promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{Registry: s.promRegistry})
}

func (s *Server) webSocketConfig() handlers.WebSocketConfig {
	cfg := handlers.DefaultWebSocketConfig()
	cfg.ReadLimit = s.cfg.Router.WebSocketReadLimit
	cfg.OriginPatterns = originPatterns(s.cfg.Server.CORSAllowedOrigins)
	return cfg
}

// originPatterns turns CORS origins ("https://app.example.com") into the host
// patterns websocket.Accept matches against. No origins means any origin.
func originPatterns(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 启动 HTTP、Metrics 服务器与后台采样
func (s *Server) Start() error {
	bgCtx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel
	s.bg, bgCtx = errgroup.WithContext(bgCtx)
	s.bg.Go(func() error {
		s.sampleStats(bgCtx, statsInterval)
		return nil
	})

	srv := s.cfg.Server
	s.httpManager = server.NewManager(s.Handler(bgCtx), server.Config{
		Name:            "api",
		Addr:            fmt.Sprintf(":%d", srv.HTTPPort),
		ReadTimeout:     srv.ReadTimeout,
		WriteTimeout:    srv.WriteTimeout,
		IdleTimeout:     srv.IdleTimeout,
		ShutdownTimeout: srv.ShutdownTimeout,
		CertFile:        srv.TLSCertFile,
		KeyFile:         srv.TLSKeyFile,
	}, s.logger)
	if err := s.httpManager.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if srv.MetricsPort != 0 {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", s.metricsHandler())
		s.metricsManager = server.NewManager(mux, server.Config{
			Name:            "metrics",
			Addr:            fmt.Sprintf(":%d", srv.MetricsPort),
			ReadTimeout:     srv.ReadTimeout,
			WriteTimeout:    srv.WriteTimeout,
			ShutdownTimeout: srv.ShutdownTimeout,
		}, s.logger)
		if err := s.metricsManager.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	s.logger.Info("all servers started",
		zap.String("http_addr", s.httpManager.Addr()),
		zap.Int("metrics_port", srv.MetricsPort),
		zap.Bool("tls", srv.TLSEnabled()),
	)
	return nil
}

// sampleStats 定期把连接池与缓存统计写入 Prometheus
func (s *Server) sampleStats(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		s.recordStoreStats(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) recordStoreStats(ctx context.Context) {
	if s.db != nil {
		st := s.db.Stats()
		s.collector.RecordDBConnections(s.cfg.Database.Driver, st.OpenConnections, st.Idle)
		if st.WaitCount > 0 {
			s.logger.Debug("database pool contention",
				zap.Int64("wait_count", st.WaitCount),
				zap.Duration("wait_duration", st.WaitDuration),
			)
		}
	}
	if s.cache != nil {
		st, err := s.cache.GetStats(ctx)
		if err != nil {
			s.logger.Debug("cache stats unavailable", zap.Error(err))
			return
		}
		s.collector.RecordCacheStats(int64(st.Hits), int64(st.Misses))
	}
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// WaitForShutdown 等待信号、ctx 结束或 Metrics 服务异常，然后优雅关闭
func (s *Server) WaitForShutdown(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if s.metricsManager != nil {
		go func() {
			select {
			case err := <-s.metricsManager.Errors():
				s.logger.Error("metrics server exited unexpectedly", zap.Error(err))
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	if s.httpManager != nil {
		s.httpManager.WaitForShutdown(ctx)
	}
	if err := s.Shutdown(context.Background()); err != nil {
		s.logger.Error("shutdown finished with errors", zap.Error(err))
	}
}

// Shutdown stops the servers concurrently, then the background sampler, then
// closes stores and flushes telemetry.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("starting graceful shutdown")

	var servers errgroup.Group
	for _, m := range []*server.Manager{s.httpManager, s.metricsManager} {
		if m == nil {
			continue
		}
		servers.Go(func() error { return m.Shutdown(ctx) })
	}
	errs := []error{servers.Wait()}

	if s.bgCancel != nil {
		s.bgCancel()
		errs = append(errs, s.bg.Wait())
	}

	var closers errgroup.Group
	if s.cache != nil {
		closers.Go(s.cache.Close)
	}
	if s.db != nil {
		closers.Go(s.db.Close)
	}
	closers.Go(func() error { return s.telemetry.Shutdown(ctx) })
	errs = append(errs, closers.Wait())

	err := errors.Join(errs...)
	if err == nil {
		s.logger.Info("graceful shutdown completed")
	}
	return err
}
