package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/tabiplan/internal/model"
)

// PostgresWatchlistRepo はPostgreSQLを使用したウォッチリストリポジトリ。
type PostgresWatchlistRepo struct {
	db *sql.DB
}

// NewPostgresWatchlistRepo はPostgresWatchlistRepoを生成する。
func NewPostgresWatchlistRepo(db *sql.DB) *PostgresWatchlistRepo {
	return &PostgresWatchlistRepo{db: db}
}

// Create はウォッチリストと銘柄を同一トランザクションで作成する。
func (r *PostgresWatchlistRepo) Create(ctx context.Context, watchlist *model.Watchlist) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO watchlists (id, user_id, name, created_at)
		 VALUES ($1, $2, $3, $4)`,
		watchlist.ID, watchlist.UserID, watchlist.Name, watchlist.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert watchlist: %w", err)
	}

	for _, symbol := range watchlist.Symbols {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO watchlist_items (id, watchlist_id, symbol)
			 VALUES ($1, $2, $3)`,
			uuid.New().String(), watchlist.ID, symbol,
		)
		if err != nil {
			return fmt.Errorf("failed to insert watchlist item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// FindByID は指定IDのウォッチリストを銘柄付きで取得する。見つからない場合はnilを返す。
func (r *PostgresWatchlistRepo) FindByID(ctx context.Context, id string) (*model.Watchlist, error) {
	watchlist := &model.Watchlist{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at FROM watchlists WHERE id = $1`,
		id,
	).Scan(&watchlist.ID, &watchlist.UserID, &watchlist.Name, &watchlist.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find watchlist by ID: %w", err)
	}

	symbols, err := r.listSymbols(ctx, watchlist.ID)
	if err != nil {
		return nil, err
	}
	watchlist.Symbols = symbols

	return watchlist, nil
}

// ListByUserID はユーザーのウォッチリスト一覧を銘柄付きで返す。
func (r *PostgresWatchlistRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Watchlist, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, created_at FROM watchlists
		 WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlists: %w", err)
	}
	defer rows.Close()

	watchlists := []*model.Watchlist{}
	for rows.Next() {
		w := &model.Watchlist{}
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist: %w", err)
		}
		watchlists = append(watchlists, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate watchlists: %w", err)
	}

	for _, w := range watchlists {
		symbols, err := r.listSymbols(ctx, w.ID)
		if err != nil {
			return nil, err
		}
		w.Symbols = symbols
	}

	return watchlists, nil
}

// Delete は指定IDのウォッチリストを削除する。銘柄はCASCADE削除される。
func (r *PostgresWatchlistRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM watchlists WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete watchlist: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("watchlist not found: %s", id)
	}
	return nil
}

// listSymbols は指定ウォッチリストの銘柄一覧を返す。
func (r *PostgresWatchlistRepo) listSymbols(ctx context.Context, watchlistID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT symbol FROM watchlist_items WHERE watchlist_id = $1`,
		watchlistID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist items: %w", err)
	}
	defer rows.Close()

	symbols := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate symbols: %w", err)
	}

	return symbols, nil
}

// compile-time interface check
var _ WatchlistRepository = (*PostgresWatchlistRepo)(nil)
