// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// グローバル変数には置かず、サービス構築時に明示的に渡す。
type Config struct {
	// Database
	DatabaseURL string

	// Session
	JWTSecret     string
	CookieName    string
	SessionMaxAge int // セッショントークンとCookieの有効期間（秒）

	// Password
	BcryptCost int

	// Rate Limit
	RateLimitGeneral int // 認証済みAPI全般のレート（req/min/user）

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
// JWT_SECRETは例外で、未設定でも起動は継続し警告ログのみ出力する
// （本番公開前の鍵供給はデプロイ側の責務）。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET is not set; session tokens will be signed with an empty key")
	}

	// Optional fields with defaults
	cfg.CookieName = getEnvString("COOKIE_NAME", "auth_token")
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 7*24*60*60)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 12)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8787")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:8787")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}
