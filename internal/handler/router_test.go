package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/tabiplan/internal/middleware"
	"github.com/hitoshi/tabiplan/internal/model"
	"github.com/hitoshi/tabiplan/internal/token"
)

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

// newTestRouter はトークン検証まで含めた実構成に近いルーターを組み立てる。
func newTestRouter(t *testing.T, authService AuthService) (http.Handler, *token.Manager) {
	t.Helper()

	manager := token.NewManager([]byte("test-secret-32bytes-long-enough!"), time.Hour)
	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(limiter.Stop)

	router := NewRouter(&RouterDeps{
		TokenVerifier:     manager,
		CookieName:        "auth_token",
		CORSAllowedOrigin: "http://localhost:5173",
		RateLimiter:       limiter,
		AuthService:       authService,
		AuthConfig: AuthHandlerConfig{
			CookieName:    "auth_token",
			SessionMaxAge: 604800,
		},
		WatchlistService: &mockWatchlistService{},
		BacktestService:  &mockBacktestService{},
		HealthChecker:    &mockHealthChecker{},
	})
	return router, manager
}

func TestRouter_Health_ReturnsOK(t *testing.T) {
	router, _ := newTestRouter(t, &mockAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Errorf("body = %q, want ok=true", w.Body.String())
	}
}

func TestRouter_ProtectedRoute_WithoutCookie_Returns401(t *testing.T) {
	router, _ := newTestRouter(t, &mockAuthService{})

	for _, path := range []string{"/api/user/me", "/api/watchlists", "/api/backtests"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want %d", path, w.Code, http.StatusUnauthorized)
		}
	}
}

func TestRouter_ProtectedRoute_WithValidCookie_Succeeds(t *testing.T) {
	svc := &mockAuthService{
		currentUserFn: func(ctx context.Context, userID string) (*model.User, error) {
			return &model.User{ID: userID, Email: "taro@example.com"}, nil
		},
	}
	router, manager := newTestRouter(t, svc)

	signed, err := manager.Issue(token.Identity{ID: "user-1", Email: "taro@example.com"})
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: signed})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

// 登録→me→ログアウト→401 の一連のセッションライフサイクルを検証する。
func TestRouter_SessionLifecycle(t *testing.T) {
	users := map[string]*model.User{}
	manager := token.NewManager([]byte("test-secret-32bytes-long-enough!"), time.Hour)

	svc := &mockAuthService{
		registerFn: func(ctx context.Context, email, password string) (*model.User, string, error) {
			user := &model.User{ID: "user-1", Email: email}
			users[user.ID] = user
			signed, err := manager.Issue(token.Identity{ID: user.ID, Email: user.Email})
			return user, signed, err
		},
		currentUserFn: func(ctx context.Context, userID string) (*model.User, error) {
			user, ok := users[userID]
			if !ok {
				return nil, model.NewInvalidTokenError()
			}
			return user, nil
		},
	}

	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(limiter.Stop)

	router := NewRouter(&RouterDeps{
		TokenVerifier:     manager,
		CookieName:        "auth_token",
		CORSAllowedOrigin: "http://localhost:5173",
		RateLimiter:       limiter,
		AuthService:       svc,
		AuthConfig: AuthHandlerConfig{
			CookieName:    "auth_token",
			SessionMaxAge: 604800,
		},
		WatchlistService: &mockWatchlistService{},
		BacktestService:  &mockBacktestService{},
		HealthChecker:    &mockHealthChecker{},
	})

	server := httptest.NewServer(router)
	defer server.Close()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	client := &http.Client{Jar: jar}

	// 1. 登録するとCookieが設定される
	resp, err := client.Post(server.URL+"/api/auth/register", "application/json",
		strings.NewReader(`{"email":"taro@example.com","password":"Secret123!"}`))
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	// 2. Cookie付きでmeが成功する
	resp, err = client.Get(server.URL + "/api/user/me")
	if err != nil {
		t.Fatalf("me request failed: %v", err)
	}
	var me map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		t.Fatalf("failed to decode me body: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if me["email"] != "taro@example.com" {
		t.Errorf("me email = %q, want taro@example.com", me["email"])
	}

	// 3. ログアウトするとCookieが失効する
	resp, err = client.Post(server.URL+"/api/auth/logout", "application/json", nil)
	if err != nil {
		t.Fatalf("logout request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	// 4. Cookieなしのmeは401
	resp, err = client.Get(server.URL + "/api/user/me")
	if err != nil {
		t.Fatalf("me request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("me after logout status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestRouter_CORSHeaders_Applied(t *testing.T) {
	router, _ := newTestRouter(t, &mockAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q, want http://localhost:5173", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Access-Control-Allow-Credentials = %q, want true", got)
	}
}
