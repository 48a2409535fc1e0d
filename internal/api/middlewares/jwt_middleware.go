package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"recruitgate/pkg/utils"
)

var errMissingToken = errors.New("missing Bearer token")

// Authenticator verifies HS256 tokens issued with utils.SignToken. The token
// is read from the "Bearer" cookie or the Authorization header.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret []byte) *Authenticator {
	return &Authenticator{secret: secret}
}

// JWTMiddleware rejects requests without a valid token.
func (a *Authenticator) JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := a.authenticate(r)
		if err != nil {
			writeAuthError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalJWT lets anonymous requests through untouched. A token that is
// present but invalid is still rejected.
func (a *Authenticator) OptionalJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := a.authenticate(r)
		if errors.Is(err, errMissingToken) {
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			writeAuthError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errMissingToken):
		utils.WriteError(w, "Unauthorized: Missing Bearer token", http.StatusUnauthorized)
	case errors.Is(err, jwt.ErrTokenExpired):
		utils.WriteError(w, "token expired", http.StatusUnauthorized)
	default:
		utils.WriteError(w, "invalid login token", http.StatusUnauthorized)
	}
}

func bearerToken(r *http.Request) string {
	if cookie, err := r.Cookie("Bearer"); err == nil && cookie.Value != "" {
		return strings.TrimPrefix(cookie.Value, "Bearer ")
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func (a *Authenticator) authenticate(r *http.Request) (context.Context, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, errMissingToken
	}

	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	uid, _ := claims["uid"].(string)
	if uid == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}

	ctx := context.WithValue(r.Context(), utils.UserIDKey, uid)
	ctx = context.WithValue(ctx, utils.UserEmailKey, claims["email"])
	ctx = context.WithValue(ctx, utils.RoleKey, claims["role"])
	ctx = context.WithValue(ctx, utils.ExpiresAtKey, claims["exp"])
	return ctx, nil
}

// RequireRole must run after JWTMiddleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowed[utils.Role(r.Context())] {
				utils.WriteError(w, "forbidden: insufficient role", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
