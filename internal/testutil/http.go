package testutil

import (
	"net/http"
	"time"

	"github.com/taskcamp/taskcamp/internal/app/system/auth"
	"github.com/taskcamp/taskcamp/internal/app/system/authz"
	"github.com/taskcamp/taskcamp/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestUser builds the request-context identity for a user record.
func RequestUser(u models.User) *auth.CurrentUser {
	return &auth.CurrentUser{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		FullName:        u.FullName,
		AvatarURL:       u.AvatarURL,
		IsEmailVerified: u.IsEmailVerified,
		CreatedAt:       u.CreatedAt,
	}
}

// NewRequestUser returns a synthetic authenticated identity for handler
// tests that do not need a stored user record.
func NewRequestUser(username string) *auth.CurrentUser {
	return &auth.CurrentUser{
		ID:              primitive.NewObjectID(),
		Username:        username,
		Email:           username + "@test.example",
		IsEmailVerified: true,
		CreatedAt:       time.Now().UTC(),
	}
}

// AsUser injects an authenticated identity into the request, bypassing the
// token middleware.
func AsUser(r *http.Request, u *auth.CurrentUser) *http.Request {
	return auth.WithUser(r, u)
}

// AsProjectRole injects both an identity and a granted project role,
// bypassing the authorization middleware.
func AsProjectRole(r *http.Request, u *auth.CurrentUser, role authz.Role) *http.Request {
	return authz.WithRole(auth.WithUser(r, u), role)
}
