// Package auth is the authentication gate: it resolves the caller's access
// token (cookie first, then Authorization header), verifies it, loads the
// user, and injects the identity into the request context.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/taskcamp/taskcamp/internal/app/system/respond"
	"github.com/taskcamp/taskcamp/internal/app/system/token"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Cookie names for the two token kinds.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

// CurrentUser is the identity attached to an authenticated request. It is a
// projection of the user record without the sensitive fields (password hash,
// refresh token, one-shot token state).
type CurrentUser struct {
	ID              primitive.ObjectID `json:"_id"`
	Username        string             `json:"username"`
	Email           string             `json:"email"`
	FullName        string             `json:"fullName,omitempty"`
	AvatarURL       string             `json:"avatarUrl,omitempty"`
	IsEmailVerified bool               `json:"isEmailVerified"`
	CreatedAt       time.Time          `json:"createdAt"`
}

// UserFetcher loads the user referenced by a verified token. Implementations
// return nil when the user does not exist or cannot be loaded; the gate
// treats nil as an authentication failure.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *CurrentUser
}

type ctxKey int

const currentUserKey ctxKey = iota

// FromContext returns the authenticated user, if any.
func FromContext(ctx context.Context) (*CurrentUser, bool) {
	u, ok := ctx.Value(currentUserKey).(*CurrentUser)
	return u, ok
}

// WithUser returns a request whose context carries the given user.
// Handler tests use this to bypass the middleware.
func WithUser(r *http.Request, u *CurrentUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// Gate authenticates requests using the token service and user fetcher.
type Gate struct {
	Tokens *token.Service
	Fetch  UserFetcher
	Log    *zap.Logger
}

// NewGate constructs an authentication gate.
func NewGate(tokens *token.Service, fetch UserFetcher, logger *zap.Logger) *Gate {
	return &Gate{Tokens: tokens, Fetch: fetch, Log: logger}
}

// TokenFromRequest extracts the access token from the accessToken cookie or,
// failing that, from an "Authorization: Bearer" header. The cookie wins when
// both are present.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(AccessCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// RequireUser rejects the request with 401 unless it carries a valid access
// token that resolves to an existing user. On success the user is placed in
// the request context.
func (g *Gate) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := g.resolve(r)
		if u == nil {
			respond.Error(w, http.StatusUnauthorized, "invalid access token")
			return
		}
		next.ServeHTTP(w, WithUser(r, u))
	})
}

// LoadUserOrIgnore is the permissive variant for routes that personalize for
// logged-in callers but also serve anonymous ones. Any failure is swallowed
// and the request proceeds without an identity.
func (g *Gate) LoadUserOrIgnore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := g.resolve(r); u != nil {
			r = WithUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// resolve performs the full token-to-user resolution. It returns nil when no
// token is present, the token fails verification, or the user is gone.
func (g *Gate) resolve(r *http.Request) *CurrentUser {
	tok := TokenFromRequest(r)
	if tok == "" {
		return nil
	}
	claims, err := g.Tokens.VerifyAccessToken(tok)
	if err != nil {
		return nil
	}
	u := g.Fetch.FetchUser(r.Context(), claims.UserID)
	if u == nil && g.Log != nil {
		g.Log.Debug("access token references missing user", zap.String("user_id", claims.UserID))
	}
	return u
}
