package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/tabiplan/internal/model"
)

// PostgresBacktestRepo はPostgreSQLを使用したバックテストリポジトリ。
type PostgresBacktestRepo struct {
	db *sql.DB
}

// NewPostgresBacktestRepo はPostgresBacktestRepoを生成する。
func NewPostgresBacktestRepo(db *sql.DB) *PostgresBacktestRepo {
	return &PostgresBacktestRepo{db: db}
}

// Create はバックテスト記録を作成する。
func (r *PostgresBacktestRepo) Create(ctx context.Context, backtest *model.Backtest) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO backtests (id, user_id, title, symbol, timeframe, params_json, from_date, to_date, results_json, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		backtest.ID, backtest.UserID, backtest.Title, backtest.Symbol, backtest.Timeframe,
		backtest.ParamsJSON, backtest.From, backtest.To, backtest.ResultsJSON, backtest.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert backtest: %w", err)
	}

	return nil
}

// ListByUserID はユーザーのバックテスト一覧をcreated_at降順で返す。
func (r *PostgresBacktestRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Backtest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, symbol, timeframe, params_json, from_date, to_date, results_json, created_at
		 FROM backtests WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list backtests: %w", err)
	}
	defer rows.Close()

	backtests := []*model.Backtest{}
	for rows.Next() {
		b := &model.Backtest{}
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.Title, &b.Symbol, &b.Timeframe,
			&b.ParamsJSON, &b.From, &b.To, &b.ResultsJSON, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan backtest: %w", err)
		}
		backtests = append(backtests, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate backtests: %w", err)
	}

	return backtests, nil
}

// compile-time interface check
var _ BacktestRepository = (*PostgresBacktestRepo)(nil)
