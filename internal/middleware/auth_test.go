package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/tabiplan/internal/model"
	"github.com/hitoshi/tabiplan/internal/token"
)

const testCookieName = "auth_token"

// --- モック定義 ---

type mockVerifier struct {
	verifyFn func(tokenString string) (*token.Identity, error)
}

func (m *mockVerifier) Verify(tokenString string) (*token.Identity, error) {
	if m.verifyFn != nil {
		return m.verifyFn(tokenString)
	}
	return nil, token.ErrInvalidToken
}

// newTestTokenManager はテスト用のtoken.Managerを生成する。
func newTestTokenManager(t *testing.T) *token.Manager {
	t.Helper()
	return token.NewManager([]byte("test-secret-32bytes-long-enough!"), time.Hour)
}

// --- テスト ---

// Cookie未提示のリクエストが401 UNAUTHENTICATEDになることを検証
func TestAuthMiddleware_NoCookie_Returns401(t *testing.T) {
	mw := NewAuthMiddleware(&mockVerifier{}, testCookieName)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body.Code != model.ErrCodeUnauthenticated {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUnauthenticated)
	}
}

// 検証に失敗するトークンが401 INVALID_TOKENになることを検証
func TestAuthMiddleware_InvalidToken_Returns401(t *testing.T) {
	mw := NewAuthMiddleware(&mockVerifier{}, testCookieName)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: "forged-token"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body.Code != model.ErrCodeInvalidToken {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInvalidToken)
	}
}

// 有効なトークンでIdentityがコンテキストに注入されることを検証
func TestAuthMiddleware_ValidToken_InjectsIdentity(t *testing.T) {
	verifier := &mockVerifier{
		verifyFn: func(tokenString string) (*token.Identity, error) {
			if tokenString != "valid-token" {
				return nil, token.ErrInvalidToken
			}
			return &token.Identity{ID: "u1", Email: "a@b.com"}, nil
		},
	}

	var gotIdentity *token.Identity
	mw := NewAuthMiddleware(verifier, testCookieName)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := IdentityFromContext(r.Context())
		if err != nil {
			t.Errorf("IdentityFromContext() error = %v", err)
			return
		}
		gotIdentity = identity
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: "valid-token"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotIdentity == nil {
		t.Fatal("expected identity in context")
	}
	if gotIdentity.ID != "u1" || gotIdentity.Email != "a@b.com" {
		t.Errorf("identity = %+v", gotIdentity)
	}
}

// 実際のtoken.Managerとの組み合わせで発行→検証が通ることを検証
func TestAuthMiddleware_WithRealTokenManager(t *testing.T) {
	m := newTestTokenManager(t)

	signed, err := m.Issue(token.Identity{ID: "u1", Email: "a@b.com"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	mw := NewAuthMiddleware(m, testCookieName)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: signed})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// IdentityFromContextが未注入のコンテキストでエラーを返すことを検証
func TestIdentityFromContext_Missing_ReturnsError(t *testing.T) {
	if _, err := IdentityFromContext(context.Background()); err == nil {
		t.Error("expected error for missing identity")
	}
}

// ContextWithIdentityで注入したIdentityが取得できることを検証
func TestContextWithIdentity_RoundTrip(t *testing.T) {
	ctx := ContextWithIdentity(context.Background(), &token.Identity{ID: "u1", Email: "a@b.com"})

	userID, err := UserIDFromContext(ctx)
	if err != nil {
		t.Fatalf("UserIDFromContext() error = %v", err)
	}
	if userID != "u1" {
		t.Errorf("userID = %q, want %q", userID, "u1")
	}
}
