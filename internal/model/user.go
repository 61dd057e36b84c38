// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashはbcryptハッシュであり、APIレスポンスには決して含めない。
// メールアドレスは保存時の表記のまま扱う（大文字小文字を正規化しない）。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// PublicUser はAPIレスポンスに公開してよいユーザー情報を表す。
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Public はレスポンス用の公開ユーザー情報を返す。
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email}
}
