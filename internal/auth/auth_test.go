package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testKey = "correct horse battery staple"

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testKey), bcrypt.MinCost)
	require.NoError(t, err)
	return NewService(string(hash), "test-secret")
}

func TestHashAPIKey(t *testing.T) {
	hash, err := HashAPIKey(testKey)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(testKey)))
}

func TestExchangeAndValidate(t *testing.T) {
	s := newTestService(t)

	res, err := s.Exchange(testKey, "exporter")
	require.NoError(t, err)
	assert.Equal(t, "exporter", res.Subject)

	subject, err := s.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "exporter", subject)
}

func TestExchangeRandomSubject(t *testing.T) {
	s := newTestService(t)
	a, err := s.Exchange(testKey, "")
	require.NoError(t, err)
	b, err := s.Exchange(testKey, "")
	require.NoError(t, err)
	assert.NotEmpty(t, a.Subject)
	assert.NotEqual(t, a.Subject, b.Subject)
}

func TestExchangeRejectsWrongKey(t *testing.T) {
	s := newTestService(t)
	_, err := s.Exchange("wrong", "x")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)

	_, err = NewService("", "secret").Exchange(testKey, "x")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestValidateTokenExpiry(t *testing.T) {
	s := newTestService(t)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return start }

	res, err := s.Exchange(testKey, "x")
	require.NoError(t, err)
	assert.Equal(t, start.Add(24*time.Hour), res.ExpiresAt)

	s.now = func() time.Time { return start.Add(25 * time.Hour) }
	_, err = s.ValidateToken(res.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsForeignSignatures(t *testing.T) {
	s := newTestService(t)

	other := NewService("", "other-secret")
	res, err := other.issueToken("x")
	require.NoError(t, err)
	_, err = s.ValidateToken(res.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.ValidateToken(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenHandler(t *testing.T) {
	h := NewHandler(newTestService(t))

	rec := httptest.NewRecorder()
	h.Token(rec, httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"apiKey":"`+testKey+`","client":"ci"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	var res TokenResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "ci", res.Subject)

	rec = httptest.NewRecorder()
	h.Token(rec, httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"apiKey":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.Token(rec, httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Token(rec, httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestService(t)
	var seen string
	handler := s.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	res, err := s.Exchange(testKey, "viewer")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", "", http.StatusUnauthorized},
		{"garbage", "Bearer abc", "", http.StatusUnauthorized},
		{"header", "Bearer " + res.Token, "", http.StatusNoContent},
		{"query", "", "?token=" + res.Token, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/export/png"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusNoContent {
				assert.Equal(t, "viewer", seen)
			}
		})
	}
}

func TestAuthMiddlewareDisabled(t *testing.T) {
	s := NewService("", "")
	called := false
	handler := s.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
	assert.False(t, s.Enabled())
}
