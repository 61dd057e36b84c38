package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T, server *httptest.Server) *SessionStore {
	t.Helper()

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	cache, err := NewSessionCache(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	return NewSessionStore(c, cache)
}

func TestSessionStore_InitialState_IsUnknown(t *testing.T) {
	server := newAuthTestServer(t)
	store := newTestStore(t, server)

	if store.State() != StateUnknown {
		t.Errorf("state = %v, want unknown", store.State())
	}
	if store.RequireAuth() != GuardWait {
		t.Errorf("guard = %v, want wait", store.RequireAuth())
	}
}

func TestSessionStore_Refresh_Success_BecomesAuthenticated(t *testing.T) {
	server := newAuthTestServer(t)
	store := newTestStore(t, server)

	// まずログインしてCookieを得る
	if _, err := store.Register(context.Background(), "taro@example.com", "Secret123!"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if store.State() != StateAuthenticated {
		t.Errorf("state = %v, want authenticated", store.State())
	}
	if store.RequireAuth() != GuardAllow {
		t.Errorf("guard = %v, want allow", store.RequireAuth())
	}
	if user := store.User(); user == nil || user.Email != "taro@example.com" {
		t.Errorf("user = %+v, want taro@example.com", user)
	}
}

func TestSessionStore_Refresh_Unauthorized_BecomesUnauthenticated(t *testing.T) {
	server := newAuthTestServer(t)
	store := newTestStore(t, server)

	// Cookieなしのrefreshは401で失敗する
	if err := store.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if store.State() != StateUnauthenticated {
		t.Errorf("state = %v, want unauthenticated", store.State())
	}
	if store.RequireAuth() != GuardRedirect {
		t.Errorf("guard = %v, want redirect", store.RequireAuth())
	}
	if store.User() != nil {
		t.Errorf("user = %+v, want nil", store.User())
	}
}

// ネットワーク到達不能でもUnknownのまま留まらずUnauthenticatedへ遷移する。
func TestSessionStore_Refresh_NetworkError_BecomesUnauthenticated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	store := newTestStore(t, server)
	server.Close()

	if err := store.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if store.State() != StateUnauthenticated {
		t.Errorf("state = %v, want unauthenticated", store.State())
	}
}

func TestSessionStore_Logout_PurgesStateAndCache(t *testing.T) {
	server := newAuthTestServer(t)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	dir := t.TempDir()
	cache, err := NewSessionCache(dir)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	store := NewSessionStore(c, cache)

	if _, err := store.Register(context.Background(), "taro@example.com", "Secret123!"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	cachePath := filepath.Join(dir, "session.json")
	if _, err := os.Stat(cachePath); err != nil {
		t.Fatalf("cache file should exist after register: %v", err)
	}

	if err := store.Logout(context.Background()); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if store.State() != StateUnauthenticated {
		t.Errorf("state = %v, want unauthenticated", store.State())
	}
	if _, err := os.Stat(cachePath); !os.IsNotExist(err) {
		t.Error("cache file should be removed after logout")
	}
}

func TestSessionStore_Subscribe_NotifiesOnTransition(t *testing.T) {
	server := newAuthTestServer(t)
	store := newTestStore(t, server)

	var notified []State
	unsubscribe := store.Subscribe(func(state State) {
		notified = append(notified, state)
	})

	if _, err := store.Register(context.Background(), "taro@example.com", "Secret123!"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := store.Logout(context.Background()); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	if len(notified) != 2 || notified[0] != StateAuthenticated || notified[1] != StateUnauthenticated {
		t.Errorf("notified = %v, want [authenticated unauthenticated]", notified)
	}

	// 解除後は通知されない
	unsubscribe()
	if err := store.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh to fail after logout")
	}
	if len(notified) != 2 {
		t.Errorf("notified after unsubscribe = %v, want unchanged", notified)
	}
}

// キャッシュに残ったスナップショットは表示用に読まれるが、状態はUnknownのまま。
func TestSessionStore_CachedUser_DoesNotAuthenticate(t *testing.T) {
	server := newAuthTestServer(t)

	dir := t.TempDir()
	cache, err := NewSessionCache(dir)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	if err := cache.Save(&cachedSession{User: &UserSnapshot{ID: "user-1", Email: "taro@example.com"}}); err != nil {
		t.Fatalf("failed to seed cache: %v", err)
	}

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	store := NewSessionStore(c, cache)

	if store.State() != StateUnknown {
		t.Errorf("state = %v, want unknown", store.State())
	}
	if user := store.User(); user == nil || user.Email != "taro@example.com" {
		t.Errorf("user = %+v, want cached snapshot", user)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateUnknown, "unknown"},
		{StateAuthenticated, "authenticated"},
		{StateUnauthenticated, "unauthenticated"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", tt.state, got, tt.want)
		}
	}
}
