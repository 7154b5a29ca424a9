package usecase

import (
	"context"
	"net/http"
	"time"

	repo "storefront/internal/repository"
)

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// カートセッションのトークンを作る約束
type SessionTokenIssuer interface {
	Issue(sessionID string, now time.Time) (token string, expiresAt time.Time, err error)
}

// SessionUsecase はゲストのカートセッションを発行する。
type SessionUsecase struct {
	cartRepo repo.CartRepository
	ids      IDGenerator
	clock    Clock
	issuer   SessionTokenIssuer
	currency string
}

func NewSessionUsecase(cartRepo repo.CartRepository, ids IDGenerator, clock Clock, issuer SessionTokenIssuer, currency string) *SessionUsecase {
	return &SessionUsecase{
		cartRepo: cartRepo,
		ids:      ids,
		clock:    clock,
		issuer:   issuer,
		currency: currency,
	}
}

type SessionResponse struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Currency  string    `json:"currency"`
}

// Start は新しいセッションIDを作り、空カートとトークンを返す。
func (u *SessionUsecase) Start(ctx context.Context) (SessionResponse, error) {
	sessionID := u.ids.NewID()
	if sessionID == "" {
		return SessionResponse{}, NewHTTPError(http.StatusInternalServerError, "id error")
	}

	// ACTIVEカートを先に作っておく
	if _, err := u.cartRepo.GetOrCreateActiveBySession(ctx, sessionID, u.currency); err != nil {
		return SessionResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	token, exp, err := u.issuer.Issue(sessionID, u.clock.Now())
	if err != nil {
		return SessionResponse{}, NewHTTPError(http.StatusInternalServerError, "token error")
	}

	return SessionResponse{
		Token:     token,
		SessionID: sessionID,
		ExpiresAt: exp,
		Currency:  u.currency,
	}, nil
}
