package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/usecase"
)

func runAuth(t *testing.T, authz string) (*httptest.ResponseRecorder, string) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got string
	h := AuthCartSession("secret")(func(c echo.Context) error {
		got, _ = c.Get(CtxSessionIDKey).(string)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, got
}

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestAuthCartSession_OK(t *testing.T) {
	tok, _, err := usecase.NewJWTSessionIssuer("secret", time.Hour).Issue("sess-1", time.Now())
	require.NoError(t, err)

	rec, sid := runAuth(t, "Bearer "+tok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sess-1", sid)
}

func TestAuthCartSession_Rejects(t *testing.T) {
	expired, _, err := usecase.NewJWTSessionIssuer("secret", time.Hour).Issue("sess-1", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	cases := map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc",
		"empty token":  "Bearer ",
		"garbage":      "Bearer abc.def.ghi",
		"wrong secret": "Bearer " + sign(t, "other", jwt.MapClaims{"sub": "s", "kind": usecase.KindCart}),
		"wrong kind":   "Bearer " + sign(t, "secret", jwt.MapClaims{"sub": "s", "kind": "user"}),
		"no subject":   "Bearer " + sign(t, "secret", jwt.MapClaims{"kind": usecase.KindCart}),
		"expired":      "Bearer " + expired,
	}
	for name, authz := range cases {
		t.Run(name, func(t *testing.T) {
			rec, sid := runAuth(t, authz)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Empty(t, sid)
		})
	}
}
