// Package client はtabiplan APIへのGoクライアントを提供する。
// セッションCookieはcookiejarで自動管理される。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// APIError はサーバーが返す構造化エラー。
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Category   string `json:"category"`
	Action     string `json:"action"`
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsUnauthenticated は認証切れ・無効トークンのエラーかどうかを返す。
func (e *APIError) IsUnauthenticated() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// UserSnapshot は認証済みユーザーの表示用スナップショット。
type UserSnapshot struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Watchlist はウォッチリストのクライアント表現。
type Watchlist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Symbols   []string  `json:"symbols"`
	CreatedAt time.Time `json:"created_at"`
}

// Backtest はバックテストのクライアント表現。
type Backtest struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Symbol    string          `json:"symbol"`
	Timeframe string          `json:"timeframe"`
	Params    json.RawMessage `json:"params"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Results   json.RawMessage `json:"results"`
	CreatedAt time.Time       `json:"created_at"`
}

// Client はtabiplan APIのHTTPクライアント。
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient はClientを生成する。セッションCookieを保持するjarを内蔵する。
func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 15 * time.Second,
		},
	}, nil
}

// doJSON はJSONリクエストを送信し、2xxならoutにデコードする。
// 2xx以外はAPIErrorとして返す。
func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody *bytes.Buffer
	if body != nil {
		reqBody = &bytes.Buffer{}
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		// ボディが構造化エラーでなくてもステータスコードは保持する
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register は新規ユーザーを登録する。成功時はセッションCookieが保存される。
func (c *Client) Register(ctx context.Context, email, password string) (*UserSnapshot, error) {
	var user UserSnapshot
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", credentialsRequest{Email: email, Password: password}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login はログインする。成功時はセッションCookieが保存される。
func (c *Client) Login(ctx context.Context, email, password string) (*UserSnapshot, error) {
	var user UserSnapshot
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", credentialsRequest{Email: email, Password: password}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout はログアウトする。サーバーはCookieを失効させる。
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// Me は現在のセッションのユーザー情報を取得する。
func (c *Client) Me(ctx context.Context) (*UserSnapshot, error) {
	var user UserSnapshot
	if err := c.doJSON(ctx, http.MethodGet, "/api/user/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListWatchlists はウォッチリスト一覧を取得する。
func (c *Client) ListWatchlists(ctx context.Context) ([]Watchlist, error) {
	var watchlists []Watchlist
	if err := c.doJSON(ctx, http.MethodGet, "/api/watchlists", nil, &watchlists); err != nil {
		return nil, err
	}
	return watchlists, nil
}

type createWatchlistRequest struct {
	Name    string   `json:"name"`
	Symbols []string `json:"symbols"`
}

// CreateWatchlist はウォッチリストを作成する。
func (c *Client) CreateWatchlist(ctx context.Context, name string, symbols []string) (*Watchlist, error) {
	var watchlist Watchlist
	if err := c.doJSON(ctx, http.MethodPost, "/api/watchlists", createWatchlistRequest{Name: name, Symbols: symbols}, &watchlist); err != nil {
		return nil, err
	}
	return &watchlist, nil
}

// DeleteWatchlist はウォッチリストを削除する。
func (c *Client) DeleteWatchlist(ctx context.Context, watchlistID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/watchlists/"+watchlistID, nil, nil)
}

// ListBacktests はバックテスト一覧を取得する。
func (c *Client) ListBacktests(ctx context.Context) ([]Backtest, error) {
	var backtests []Backtest
	if err := c.doJSON(ctx, http.MethodGet, "/api/backtests", nil, &backtests); err != nil {
		return nil, err
	}
	return backtests, nil
}

// CreateBacktestInput はバックテスト作成リクエスト。
type CreateBacktestInput struct {
	Title     string                 `json:"title"`
	Symbol    string                 `json:"symbol"`
	Timeframe string                 `json:"timeframe"`
	Params    map[string]interface{} `json:"params"`
	From      string                 `json:"from"`
	To        string                 `json:"to"`
}

// CreateBacktest はバックテストを作成する。
func (c *Client) CreateBacktest(ctx context.Context, input CreateBacktestInput) (*Backtest, error) {
	var created Backtest
	if err := c.doJSON(ctx, http.MethodPost, "/api/backtests", input, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
