// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/tabiplan/internal/model"
)

// ErrDuplicateEmail はメールアドレスのユニーク制約違反を表す。
// 同時登録の競合はDBの制約で解決し、負けた側がこのエラーを受け取る。
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	// メールアドレスが既に存在する場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
	// メールアドレスは保存時の表記のまま比較する（大文字小文字を正規化しない）。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// WatchlistRepository はウォッチリストデータの永続化インターフェース。
type WatchlistRepository interface {
	// Create はウォッチリストと銘柄を同一トランザクションで作成する。
	Create(ctx context.Context, watchlist *model.Watchlist) error

	// FindByID は指定IDのウォッチリストを銘柄付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Watchlist, error)

	// ListByUserID はユーザーのウォッチリスト一覧を銘柄付きで返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Watchlist, error)

	// Delete は指定IDのウォッチリストを削除する。銘柄はCASCADE削除される。
	Delete(ctx context.Context, id string) error
}

// BacktestRepository はバックテスト記録の永続化インターフェース。
type BacktestRepository interface {
	// Create はバックテスト記録を作成する。
	Create(ctx context.Context, backtest *model.Backtest) error

	// ListByUserID はユーザーのバックテスト一覧をcreated_at降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Backtest, error)
}
