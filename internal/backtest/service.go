// Package backtest はバックテスト記録管理のビジネスロジックを提供する。
//
// バックテストエンジン自体はスコープ外であり、結果は常にプレースホルダの
// ゼロ値（roi=0、trades/equity空配列）を保存する。
package backtest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/tabiplan/internal/model"
	"github.com/hitoshi/tabiplan/internal/repository"
	"github.com/hitoshi/tabiplan/internal/security"
)

// CreateInput はバックテスト作成の入力を表す。
// Paramsは任意でnilの場合は空オブジェクトとして保存する。
type CreateInput struct {
	Title     string
	Symbol    string
	Timeframe string
	Params    map[string]interface{}
	From      time.Time
	To        time.Time
}

// Service はバックテスト記録に関するビジネスロジックを提供する。
type Service struct {
	repo      repository.BacktestRepository
	sanitizer security.TextSanitizerService
}

// NewService はServiceを生成する。
func NewService(repo repository.BacktestRepository, sanitizer security.TextSanitizerService) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
	}
}

// List はユーザーのバックテスト一覧を作成日時降順で返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Backtest, error) {
	backtests, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list backtests: %w", err)
	}
	return backtests, nil
}

// Create は新規バックテスト記録を作成する。
// title、symbol、timeframe、from、toのいずれかが欠落している場合は
// バリデーションエラーを返す。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.Backtest, error) {
	input.Title = s.sanitizer.Sanitize(input.Title)
	input.Symbol = s.sanitizer.Sanitize(input.Symbol)
	input.Timeframe = s.sanitizer.Sanitize(input.Timeframe)

	if input.Title == "" || input.Symbol == "" || input.Timeframe == "" ||
		input.From.IsZero() || input.To.IsZero() {
		return nil, model.NewValidationError("title、symbol、timeframe、from、toは必須です。")
	}

	params := input.Params
	if params == nil {
		params = map[string]interface{}{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	backtest := &model.Backtest{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       input.Title,
		Symbol:      input.Symbol,
		Timeframe:   input.Timeframe,
		ParamsJSON:  string(paramsJSON),
		From:        input.From,
		To:          input.To,
		ResultsJSON: model.StubBacktestResults,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, backtest); err != nil {
		return nil, fmt.Errorf("failed to create backtest: %w", err)
	}

	return backtest, nil
}
