package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"certverify/pkg/domain"
	dErrors "certverify/pkg/domain-errors"
	"certverify/pkg/platform/httputil"
	"certverify/pkg/requestcontext"
)

// Claims are the access-token claims issued by the auth service. UserID is
// the portal account; UniversityID is set only for university accounts.
type Claims struct {
	UserID       string `json:"user_id"`
	Role         string `json:"role"`
	UniversityID string `json:"university_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenValidator validates bearer tokens issued by the auth service.
type TokenValidator struct {
	signingKey []byte
}

func NewTokenValidator(signingKey string) *TokenValidator {
	return &TokenValidator{signingKey: []byte(signingKey)}
}

// ValidateToken parses and validates a token string.
func (v *TokenValidator) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

type universityIDKey struct{}

// UniversityID returns the authenticated university ID, or "" when the
// caller is not a university account.
func UniversityID(r *http.Request) string {
	v, _ := r.Context().Value(universityIDKey{}).(string)
	return v
}

// RequireRole validates the bearer token and rejects callers whose role is
// not in the allowed set. On success the user ID, role, and university ID
// are stored in the request context.
func RequireRole(validator *TokenValidator, logger *slog.Logger, allowed ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "rejected request with invalid token",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				httputil.WriteError(w, err)
				return
			}

			role, err := domain.ParseRole(claims.Role)
			if err != nil {
				httputil.WriteError(w, err)
				return
			}

			permitted := false
			for _, a := range allowed {
				if role == a {
					permitted = true
					break
				}
			}
			if !permitted {
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "role not permitted for this operation"))
				return
			}

			ctx = requestcontext.WithUserID(ctx, claims.UserID)
			ctx = requestcontext.WithRole(ctx, role)
			if claims.UniversityID != "" {
				ctx = context.WithValue(ctx, universityIDKey{}, claims.UniversityID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
