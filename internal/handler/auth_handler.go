package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/tabiplan/internal/middleware"
	"github.com/hitoshi/tabiplan/internal/model"
)

// AuthService は認証ハンドラーが必要とするサービス操作を定義する。
type AuthService interface {
	Register(ctx context.Context, email, password string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
}

// AuthMetrics は認証結果のメトリクス記録を定義する。
type AuthMetrics interface {
	RecordAuthSuccess(kind string)
	RecordAuthFailure(kind string)
}

// AuthHandlerConfig はセッションCookieの発行設定。
type AuthHandlerConfig struct {
	CookieName    string
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int
}

// AuthHandler は登録・ログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service AuthService
	metrics AuthMetrics
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。metricsがnilの場合は記録を行わない。
func NewAuthHandler(service AuthService, metrics AuthMetrics, config AuthHandlerConfig) *AuthHandler {
	if metrics == nil {
		metrics = nopAuthMetrics{}
	}
	return &AuthHandler{
		service: service,
		metrics: metrics,
		config:  config,
	}
}

type nopAuthMetrics struct{}

func (nopAuthMetrics) RecordAuthSuccess(kind string) {}
func (nopAuthMetrics) RecordAuthFailure(kind string) {}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// Register はPOST /api/auth/registerを処理する。
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	user, tokenString, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.RecordAuthFailure("register")
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordAuthSuccess("register")
	h.setSessionCookie(w, tokenString)
	writeJSON(w, http.StatusOK, user.Public())
}

// Login はPOST /api/auth/loginを処理する。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	user, tokenString, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.RecordAuthFailure("login")
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordAuthSuccess("login")
	h.setSessionCookie(w, tokenString)
	writeJSON(w, http.StatusOK, user.Public())
}

// Logout はPOST /api/auth/logoutを処理する。
// Cookieの有無にかかわらず常に成功レスポンスを返す。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// Me はGET /api/user/meを処理する。認証ミドルウェアの背後に配置すること。
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewUnauthenticatedError())
		return
	}

	user, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

// setSessionCookie は署名済みトークンをHTTP-only Cookieとして設定する。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, tokenString string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.config.CookieName,
		Value:    tokenString,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie はセッションCookieを失効させる。
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.config.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
