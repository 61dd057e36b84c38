package client

import (
	"context"
	"sync"
)

// State はセッションストアの認証状態。
type State int

const (
	// StateUnknown は初期状態。まだサーバーに確認していない。
	StateUnknown State = iota
	// StateAuthenticated は有効なセッションが確認できた状態。
	StateAuthenticated
	// StateUnauthenticated はセッションが無い・失効した状態。
	StateUnauthenticated
)

// String はStateの文字列表現を返す。
func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// GuardDecision は認証必須画面のガード判定。
type GuardDecision int

const (
	// GuardWait は状態確認中。判定を保留する。
	GuardWait GuardDecision = iota
	// GuardAllow は認証済み。表示を許可する。
	GuardAllow
	// GuardRedirect は未認証。ログイン画面へ誘導する。
	GuardRedirect
)

// SessionStore はクライアント側のセッション状態を管理する。
//
// 状態遷移:
//
//	Unknown → Refresh成功 → Authenticated
//	Unknown → Refresh失敗 → Unauthenticated
//	Authenticated → Logout/Refresh失敗 → Unauthenticated
//	Unauthenticated → Login/Register成功 → Authenticated
//
// Unknownへ戻る遷移は存在しない。
type SessionStore struct {
	client *Client
	cache  *SessionCache

	mu          sync.RWMutex
	state       State
	user        *UserSnapshot
	subscribers []func(State)
}

// NewSessionStore はSessionStoreを生成する。
// キャッシュが読めた場合は表示用スナップショットとして保持するが、
// 状態はサーバー確認まではUnknownのまま。
func NewSessionStore(client *Client, cache *SessionCache) *SessionStore {
	store := &SessionStore{
		client: client,
		cache:  cache,
		state:  StateUnknown,
	}

	if cache != nil {
		if cached, err := cache.Load(); err == nil && cached.User != nil {
			store.user = cached.User
		}
	}

	return store
}

// State は現在の認証状態を返す。
func (s *SessionStore) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User は現在のユーザースナップショットを返す。未認証時はnil。
// Unknown状態ではキャッシュ由来の表示用スナップショットを返すことがある。
func (s *SessionStore) User() *UserSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Subscribe は状態変化の通知を受け取るコールバックを登録し、解除関数を返す。
func (s *SessionStore) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscribers = append(s.subscribers, fn)
	index := len(s.subscribers) - 1

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subscribers[index] = nil
	}
}

// setState は状態を更新し、購読者に通知する。
func (s *SessionStore) setState(state State, user *UserSnapshot) {
	s.mu.Lock()
	s.state = state
	s.user = user
	subscribers := make([]func(State), len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subscribers {
		if fn != nil {
			fn(state)
		}
	}
}

// Refresh はサーバーにセッションの有効性を確認する。
// 成功時はAuthenticatedに遷移しキャッシュを更新、
// 失敗時（401またはネットワークエラー）はUnauthenticatedに遷移しキャッシュを破棄する。
func (s *SessionStore) Refresh(ctx context.Context) error {
	user, err := s.client.Me(ctx)
	if err != nil {
		s.setState(StateUnauthenticated, nil)
		if s.cache != nil {
			_ = s.cache.Purge()
		}
		return err
	}

	s.setState(StateAuthenticated, user)
	if s.cache != nil {
		_ = s.cache.Save(&cachedSession{User: user})
	}
	return nil
}

// Login はログインし、成功時はAuthenticatedに遷移する。
func (s *SessionStore) Login(ctx context.Context, email, password string) (*UserSnapshot, error) {
	user, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	s.setState(StateAuthenticated, user)
	if s.cache != nil {
		_ = s.cache.Save(&cachedSession{User: user})
	}
	return user, nil
}

// Register は新規登録し、成功時はAuthenticatedに遷移する。
func (s *SessionStore) Register(ctx context.Context, email, password string) (*UserSnapshot, error) {
	user, err := s.client.Register(ctx, email, password)
	if err != nil {
		return nil, err
	}

	s.setState(StateAuthenticated, user)
	if s.cache != nil {
		_ = s.cache.Save(&cachedSession{User: user})
	}
	return user, nil
}

// Logout はログアウトする。サーバー呼び出しの成否にかかわらず
// Unauthenticatedに遷移し、キャッシュを破棄する。
func (s *SessionStore) Logout(ctx context.Context) error {
	err := s.client.Logout(ctx)

	s.setState(StateUnauthenticated, nil)
	if s.cache != nil {
		_ = s.cache.Purge()
	}
	return err
}

// RequireAuth は認証必須画面のガード判定を返す。
// Unknownなら保留、Authenticatedなら許可、Unauthenticatedならリダイレクト。
func (s *SessionStore) RequireAuth() GuardDecision {
	switch s.State() {
	case StateAuthenticated:
		return GuardAllow
	case StateUnauthenticated:
		return GuardRedirect
	default:
		return GuardWait
	}
}
