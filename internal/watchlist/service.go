// Package watchlist はウォッチリスト管理のビジネスロジックを提供する。
package watchlist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/tabiplan/internal/model"
	"github.com/hitoshi/tabiplan/internal/repository"
	"github.com/hitoshi/tabiplan/internal/security"
)

// Service はウォッチリストに関するビジネスロジックを提供する。
type Service struct {
	repo      repository.WatchlistRepository
	sanitizer security.TextSanitizerService
}

// NewService はServiceを生成する。
func NewService(repo repository.WatchlistRepository, sanitizer security.TextSanitizerService) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
	}
}

// List はユーザーのウォッチリスト一覧を返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Watchlist, error) {
	lists, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlists: %w", err)
	}
	return lists, nil
}

// Create は新規ウォッチリストを作成する。
// 名前が空の場合はバリデーションエラーを返す。
// 名前と銘柄はサニタイズしてから保存する。
func (s *Service) Create(ctx context.Context, userID, name string, symbols []string) (*model.Watchlist, error) {
	name = s.sanitizer.Sanitize(name)
	if name == "" {
		return nil, model.NewValidationError("ウォッチリスト名は必須です。")
	}

	cleaned := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if sym = s.sanitizer.Sanitize(sym); sym != "" {
			cleaned = append(cleaned, sym)
		}
	}

	watchlist := &model.Watchlist{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		Symbols:   cleaned,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, watchlist); err != nil {
		return nil, fmt.Errorf("failed to create watchlist: %w", err)
	}

	return watchlist, nil
}

// Delete は指定ウォッチリストを削除する。
// 存在しない場合と所有者が異なる場合は同一の未検出エラーを返す。
func (s *Service) Delete(ctx context.Context, userID, watchlistID string) error {
	found, err := s.repo.FindByID(ctx, watchlistID)
	if err != nil {
		return fmt.Errorf("failed to find watchlist: %w", err)
	}
	if found == nil || found.UserID != userID {
		return model.NewNotFoundError()
	}

	if err := s.repo.Delete(ctx, watchlistID); err != nil {
		return fmt.Errorf("failed to delete watchlist: %w", err)
	}

	return nil
}
