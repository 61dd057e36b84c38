// Package model はドメインモデルを定義する。
package model

import "time"

// Watchlist はユーザーが作成した銘柄ウォッチリストを表す。
// Symbolsは子テーブル（watchlist_items）に保持し、APIでは配列として返す。
type Watchlist struct {
	ID        string
	UserID    string
	Name      string
	Symbols   []string
	CreatedAt time.Time
}
