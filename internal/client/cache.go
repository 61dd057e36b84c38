package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// cacheFileMode はキャッシュファイルの権限。ユーザー本人のみ読み書き可。
const cacheFileMode = 0o600

// cachedSession はディスクに保存するセッションスナップショット。
// 表示の継続性のためのものであり、認証トークンは含めない。
type cachedSession struct {
	User       *UserSnapshot `json:"user,omitempty"`
	Watchlists []Watchlist   `json:"watchlists,omitempty"`
	Backtests  []Backtest    `json:"backtests,omitempty"`
}

// SessionCache はセッションスナップショットのファイルキャッシュ。
type SessionCache struct {
	path string
}

// NewSessionCache はdir配下にキャッシュファイルを持つSessionCacheを生成する。
func NewSessionCache(dir string) (*SessionCache, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &SessionCache{path: filepath.Join(dir, "session.json")}, nil
}

// Load はキャッシュを読み込む。ファイルが無い場合は空のスナップショットを返す。
func (c *SessionCache) Load() (*cachedSession, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cachedSession{}, nil
		}
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	var session cachedSession
	if err := json.Unmarshal(data, &session); err != nil {
		// 壊れたキャッシュは無視して空として扱う
		return &cachedSession{}, nil
	}
	return &session, nil
}

// Save はキャッシュを書き込む。
func (c *SessionCache) Save(session *cachedSession) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, cacheFileMode); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// Purge はキャッシュファイルを削除する。存在しない場合もエラーにしない。
func (c *SessionCache) Purge() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove cache: %w", err)
	}
	return nil
}
