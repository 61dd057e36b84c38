// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"net/http"
)

// APIError は統一エラーフォーマットを表す。
// HTTPステータスとUIに表示する原因カテゴリ、対処方法を含む。
// サービス層はこのエラーを回復せず、そのままトランスポート層に返す。
type APIError struct {
	Status   int    // HTTPステータスコード
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, resource, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeEmailConflict   = "EMAIL_ALREADY_REGISTERED"
	ErrCodeInvalidCreds    = "INVALID_CREDENTIALS"
	ErrCodeUnauthenticated = "UNAUTHENTICATED"
	ErrCodeInvalidToken    = "INVALID_TOKEN"
	ErrCodeNotFound        = "NOT_FOUND"
)

// NewValidationError は必須フィールド欠落などの入力検証エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Status:   http.StatusBadRequest,
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewEmailConflictError はメールアドレス重複エラーを生成する。
func NewEmailConflictError() *APIError {
	return &APIError{
		Status:   http.StatusConflict,
		Code:     ErrCodeEmailConflict,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー不存在とパスワード不一致を区別しない（アカウント列挙対策）。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Status:   http.StatusUnauthorized,
		Code:     ErrCodeInvalidCreds,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUnauthenticatedError はCookie未提示の未認証エラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Status:   http.StatusUnauthorized,
		Code:     ErrCodeUnauthenticated,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewInvalidTokenError は署名不正または期限切れトークンのエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Status:   http.StatusUnauthorized,
		Code:     ErrCodeInvalidToken,
		Message:  "セッションが無効または期限切れです。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewNotFoundError はリソース未検出エラーを生成する。
// 所有権不一致の場合も同一のエラーを返す（存在の有無を漏らさない）。
func NewNotFoundError() *APIError {
	return &APIError{
		Status:   http.StatusNotFound,
		Code:     ErrCodeNotFound,
		Message:  "指定されたリソースが見つかりません。",
		Category: "resource",
		Action:   "IDを確認してください。",
	}
}
