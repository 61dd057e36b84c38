// Package model はドメインモデルを定義する。
package model

import "time"

// Backtest はユーザーが保存したバックテスト記録を表す。
// ParamsJSONとResultsJSONはJSON文字列のまま保持する。
// 現状のバックテストエンジンはスタブであり、Resultsは常にゼロ値が入る。
type Backtest struct {
	ID          string
	UserID      string
	Title       string
	Symbol      string
	Timeframe   string
	ParamsJSON  string
	From        time.Time
	To          time.Time
	ResultsJSON string
	CreatedAt   time.Time
}

// StubBacktestResults はバックテストエンジン未実装時のプレースホルダ結果。
const StubBacktestResults = `{"roi":0,"trades":[],"equity":[]}`
