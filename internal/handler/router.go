package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/tabiplan/internal/metrics"
	"github.com/hitoshi/tabiplan/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CookieName        string
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// メトリクス
	MetricsCollector metrics.MetricsCollector
	MetricsGatherer  prometheus.Gatherer

	// 認証
	AuthService AuthService
	AuthConfig  AuthHandlerConfig

	// ウォッチリスト
	WatchlistService WatchlistService

	// バックテスト
	BacktestService BacktestService

	// ヘルスチェック
	HealthChecker HealthChecker
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → CORS → SecurityHeaders → Metrics → Logging
//
// 認証ルート（/api/auth/*）とヘルスチェックはセッション検証の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効く共通ミドルウェア
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.MetricsCollector != nil {
		r.Use(metrics.NewMiddleware(deps.MetricsCollector))
	}
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.MetricsCollector, deps.AuthConfig)
	watchlistHandler := NewWatchlistHandler(deps.WatchlistService)
	backtestHandler := NewBacktestHandler(deps.BacktestService)
	healthHandler := NewHealthHandler(deps.HealthChecker)

	// --- 認証不要のルート ---

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
	})

	r.Get("/api/health", healthHandler.Check)

	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier, deps.CookieName))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ユーザー情報
		r.Get("/api/user/me", authHandler.Me)

		// ウォッチリスト管理
		r.Route("/api/watchlists", func(r chi.Router) {
			r.Get("/", watchlistHandler.List)
			r.Post("/", watchlistHandler.Create)
			r.Delete("/{watchlistID}", watchlistHandler.Delete)
		})

		// バックテスト管理
		r.Route("/api/backtests", func(r chi.Router) {
			r.Get("/", backtestHandler.List)
			r.Post("/", backtestHandler.Create)
		})
	})

	return r
}
