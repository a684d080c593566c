package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func signed(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserIDFromContext(r.Context())
		w.Write([]byte(userID))
	})
}

func TestAuthAcceptsValidToken(t *testing.T) {
	token := signed(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodPost, "/reviews/upsert-review", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	Auth(secret)(echoUser()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())
}

func TestAuthAcceptsQueryToken(t *testing.T) {
	token := signed(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": "u2"})
	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	rec := httptest.NewRecorder()

	Auth(secret)(echoUser()).ServeHTTP(rec, req)

	assert.Equal(t, "u2", rec.Body.String())
}

func TestAuthRejects(t *testing.T) {
	cases := map[string]string{
		"missing":   "",
		"garbage":   "Bearer not-a-jwt",
		"wrong key": "Bearer " + signed(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "u1"}),
		"expired":   "Bearer " + signed(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Hour).Unix()}),
		"no sub":    "Bearer " + signed(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"name": "x"}),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			Auth(secret)(echoUser()).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestOptionalAuthPassesAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/reviews/get-user-reviews?userId=u1", nil)
	rec := httptest.NewRecorder()

	OptionalAuth(secret)(echoUser()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestOptionalAuthSetsSubject(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/reviews/get-user-reviews?userId=u1", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": "u1"}))
	rec := httptest.NewRecorder()

	OptionalAuth(secret)(echoUser()).ServeHTTP(rec, req)

	assert.Equal(t, "u1", rec.Body.String())
}

func TestOptionalAuthRejectsBadToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/reviews/get-user-reviews?userId=u1", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "u1"}))
	rec := httptest.NewRecorder()

	OptionalAuth(secret)(echoUser()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/reviews/delete-review", nil)
	rec := httptest.NewRecorder()

	CORS("http://app.example")(echoUser()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
