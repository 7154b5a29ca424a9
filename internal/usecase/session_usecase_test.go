package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/model"
)

func TestSessionStart(t *testing.T) {
	carts := new(MockCartRepository)
	carts.On("GetOrCreateActiveBySession", mock.Anything, "sess-abc", "JPY").Return(model.Cart{ID: 1}, nil)

	now := time.Now().Truncate(time.Second)
	issuer := NewJWTSessionIssuer("secret", time.Hour)
	uc := NewSessionUsecase(carts, fixedID("sess-abc"), fixedClock{now: now}, issuer, "JPY")

	out, err := uc.Start(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "sess-abc", out.SessionID)
	assert.Equal(t, now.Add(time.Hour), out.ExpiresAt)
	assert.Equal(t, "JPY", out.Currency)

	tok, err := jwt.Parse(out.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, "sess-abc", claims[ClaimSubject])
	assert.Equal(t, KindCart, claims[ClaimKind])
}

func TestSessionStart_DBError(t *testing.T) {
	carts := new(MockCartRepository)
	carts.On("GetOrCreateActiveBySession", mock.Anything, "sess-abc", "JPY").Return(model.Cart{}, errors.New("down"))

	uc := NewSessionUsecase(carts, fixedID("sess-abc"), fixedClock{now: time.Now()}, NewJWTSessionIssuer("s", time.Hour), "JPY")

	_, err := uc.Start(context.Background())
	assertStatus(t, err, http.StatusInternalServerError)
}
