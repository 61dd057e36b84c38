// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hitoshi/tabiplan/internal/model"
	"github.com/hitoshi/tabiplan/internal/token"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに認証済みIdentityを格納するためのキー。
var identityContextKey = contextKey("identity")

// TokenVerifier はセッショントークンの検証に必要なインターフェース。
// token.Managerの部分集合として定義する。
type TokenVerifier interface {
	Verify(tokenString string) (*token.Identity, error)
}

// NewAuthMiddleware はHTTP Only Cookieからセッショントークンを読み取り、
// 署名と有効期限を検証するミドルウェアを返す。
// 認証済みIdentity（ID・メールアドレス）をリクエストコンテキストに注入する。
// Cookie未提示は401 UNAUTHENTICATED、検証失敗は401 INVALID_TOKENを返す。
func NewAuthMiddleware(verifier TokenVerifier, cookieName string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Cookieからトークンを取得
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				WriteErrorResponse(w, model.NewUnauthenticatedError())
				return
			}

			// 2. トークンの署名と有効期限を検証
			identity, err := verifier.Verify(cookie.Value)
			if err != nil {
				WriteErrorResponse(w, model.NewInvalidTokenError())
				return
			}

			// 3. 認証済みIdentityをコンテキストに注入
			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext はリクエストコンテキストから認証済みIdentityを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func IdentityFromContext(ctx context.Context) (*token.Identity, error) {
	identity, ok := ctx.Value(identityContextKey).(*token.Identity)
	if !ok || identity == nil || identity.ID == "" {
		return nil, fmt.Errorf("identity not found in context")
	}
	return identity, nil
}

// UserIDFromContext はリクエストコンテキストから認証済みユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	identity, err := IdentityFromContext(ctx)
	if err != nil {
		return "", err
	}
	return identity.ID, nil
}

// ContextWithIdentity はコンテキストにIdentityを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity *token.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
