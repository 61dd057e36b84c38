// Package token はセッショントークンの発行と検証を提供する。
//
// トークンはHS256署名付きJWTで、ユーザーIDとメールアドレスを含む。
// サーバー側に失効リストは持たず、有効期限のみで無効化する。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken は署名不正または期限切れのトークンを表す。
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity はトークンに埋め込まれた認証済みユーザー情報を表す。
type Identity struct {
	ID    string
	Email string
}

// Claims はJWTに格納するクレームを表す。
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
	Email  string `json:"email"`
}

// Manager はトークンの発行・検証を行う。
// 署名鍵と有効期間を保持し、生成後はイミュータブルとして扱う。
type Manager struct {
	secret   []byte
	validity time.Duration
}

// NewManager はManagerを生成する。
// validityはトークンの有効期間（発行時刻からの経過時間）を指定する。
func NewManager(secret []byte, validity time.Duration) *Manager {
	return &Manager{secret: secret, validity: validity}
}

// Issue は指定ユーザーのセッショントークンを発行する。
func (m *Manager) Issue(identity Identity) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.validity)),
		},
		UserID: identity.ID,
		Email:  identity.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", err
	}

	return signed, nil
}

// Verify はトークンの署名と有効期限を検証し、埋め込まれたIdentityを返す。
// 署名不正・期限切れ・署名方式の不一致はすべてErrInvalidTokenとして返す。
func (m *Manager) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return &Identity{ID: claims.UserID, Email: claims.Email}, nil
}
