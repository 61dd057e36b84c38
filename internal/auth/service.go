// Package auth は資格情報の検証とセッショントークンの発行を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/tabiplan/internal/model"
	"github.com/hitoshi/tabiplan/internal/repository"
	"github.com/hitoshi/tabiplan/internal/token"
)

// dummyPasswordHash はユーザー不存在時の比較用bcryptハッシュ。
// 不存在とパスワード不一致で応答時間・応答形状が変わらないようにする。
const dummyPasswordHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// TokenIssuer はセッショントークンの発行に必要なインターフェース。
// token.Managerの部分集合として定義する。
type TokenIssuer interface {
	Issue(identity token.Identity) (string, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	BcryptCost int // パスワードハッシュのコストファクタ
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	config   ServiceConfig
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, tokens TokenIssuer, config ServiceConfig) *Service {
	if config.BcryptCost == 0 {
		config.BcryptCost = 12
	}
	return &Service{
		userRepo: userRepo,
		tokens:   tokens,
		config:   config,
	}
}

// Register は新規ユーザーを登録し、セッショントークンを発行する。
// メールアドレスまたはパスワードが空の場合はバリデーションエラーを返す。
// メールアドレスが既に存在する場合は重複エラーを返す。
// 同時登録の競合はDBのユニーク制約で解決し、負けた側が重複エラーを受け取る。
func (s *Service) Register(ctx context.Context, email, password string) (*model.User, string, error) {
	if email == "" || password == "" {
		return nil, "", model.NewValidationError("メールアドレスとパスワードは必須です。")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if err == repository.ErrDuplicateEmail {
			return nil, "", model.NewEmailConflictError()
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	signed, err := s.tokens.Issue(token.Identity{ID: user.ID, Email: user.Email})
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue session token: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
	)

	return user, signed, nil
}

// Login は資格情報を検証し、セッショントークンを発行する。
// ユーザー不存在とパスワード不一致は同一のエラーを返す。
// 不存在の場合もダミーハッシュに対するbcrypt比較を実行し、応答時間を揃える。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	if email == "" || password == "" {
		return nil, "", model.NewValidationError("メールアドレスとパスワードは必須です。")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}

	if user == nil {
		bcrypt.CompareHashAndPassword([]byte(dummyPasswordHash), []byte(password))
		return nil, "", model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", model.NewInvalidCredentialsError()
	}

	signed, err := s.tokens.Issue(token.Identity{ID: user.ID, Email: user.Email})
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue session token: %w", err)
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
	)

	return user, signed, nil
}

// CurrentUser は認証済みユーザーIDからユーザーを取得する。
// 見つからない場合（退会済みトークン等）は無効トークンエラーを返す。
func (s *Service) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidTokenError()
	}

	return user, nil
}
