package middleware_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"certverify/internal/platform/middleware"
	"certverify/pkg/domain"
	"certverify/pkg/requestcontext"
)

const signingKey = "test-signing-key"

func signToken(t *testing.T, role string, expiresIn time.Duration) string {
	t.Helper()
	claims := middleware.Claims{
		UserID:       "user-1",
		Role:         role,
		UniversityID: "mit",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	require.NoError(t, err)
	return signed
}

func TestValidateToken(t *testing.T) {
	v := middleware.NewTokenValidator(signingKey)

	claims, err := v.ValidateToken(signToken(t, "university", time.Hour))
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "mit", claims.UniversityID)

	_, err = v.ValidateToken(signToken(t, "university", -time.Hour))
	require.Error(t, err)

	_, err = v.ValidateToken("not-a-token")
	require.Error(t, err)

	// A token signed with a different key is rejected.
	other := middleware.NewTokenValidator("other-key")
	_, err = other.ValidateToken(signToken(t, "university", time.Hour))
	require.Error(t, err)
}

func TestRequireRole(t *testing.T) {
	v := middleware.NewTokenValidator(signingKey)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var gotUserID string
	var gotRole domain.Role
	var gotUniversityID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = requestcontext.UserID(r.Context())
		gotRole = requestcontext.Role(r.Context())
		gotUniversityID = middleware.UniversityID(r)
	})
	protected := middleware.RequireRole(v, logger, domain.RoleUniversity)(next)

	// No token.
	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	// Wrong role.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "employer", time.Hour))
	rr = httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)

	// Allowed role reaches the handler with identity in context.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "university", time.Hour))
	rr = httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "user-1", gotUserID)
	require.Equal(t, domain.RoleUniversity, gotRole)
	require.Equal(t, "mit", gotUniversityID)
}
