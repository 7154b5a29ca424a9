package usecase

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// セッショントークンのclaim名（middlewareと共有）
const (
	ClaimSubject = "sub"
	ClaimKind    = "kind"
	KindCart     = "cart_session"
)

// JWTSessionIssuer はHS256でカートセッションのトークンを作る
type JWTSessionIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTSessionIssuer(secret string, ttl time.Duration) *JWTSessionIssuer {
	return &JWTSessionIssuer{secret: []byte(secret), ttl: ttl}
}

func (i *JWTSessionIssuer) Issue(sessionID string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.ttl)

	claims := jwt.MapClaims{
		ClaimSubject: sessionID,
		ClaimKind:    KindCart,
		"iat":        now.Unix(),
		"exp":        expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
