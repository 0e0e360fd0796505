// Package authz enforces per-project role gates. Every project-scoped route
// passes through RequireProjectRole, which resolves the caller's membership
// in the project named by the URL and compares it against the allowed set.
package authz

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taskcamp/taskcamp/internal/app/system/auth"
	"github.com/taskcamp/taskcamp/internal/app/system/respond"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrNoMembership is returned by a Resolver when the user has no membership
// record in the project.
var ErrNoMembership = errors.New("no membership in project")

// Resolver looks up the role a user holds in a project. It returns
// ErrNoMembership when the user is not a member.
type Resolver interface {
	Role(ctx context.Context, projectID, userID primitive.ObjectID) (Role, error)
}

type roleCtxKey int

const grantedRoleKey roleCtxKey = iota

// RoleFromContext returns the role the gate granted for this request.
// Handlers use it to vary behavior inside a route shared by several roles.
func RoleFromContext(ctx context.Context) (Role, bool) {
	r, ok := ctx.Value(grantedRoleKey).(Role)
	return r, ok
}

// WithRole returns a request whose context carries the granted role.
// Handler tests use this to bypass the middleware.
func WithRole(r *http.Request, role Role) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), grantedRoleKey, role))
}

// RequireProjectRole gates a project-scoped route. The project id comes from
// the "projectId" URL parameter. A user with no membership gets 404 rather
// than 403 so that project existence does not leak to outsiders.
func RequireProjectRole(resolver Resolver, logger *zap.Logger, allowed ...Role) func(http.Handler) http.Handler {
	allowedSet := make(map[Role]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.FromContext(r.Context())
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "invalid access token")
				return
			}

			projectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "projectId"))
			if err != nil {
				respond.Error(w, http.StatusBadRequest, "invalid project id")
				return
			}

			role, err := resolver.Role(r.Context(), projectID, user.ID)
			if err != nil {
				if errors.Is(err, ErrNoMembership) {
					respond.Error(w, http.StatusNotFound, "project not found")
					return
				}
				if logger != nil {
					logger.Error("membership lookup failed",
						zap.String("project_id", projectID.Hex()),
						zap.String("user_id", user.ID.Hex()),
						zap.Error(err))
				}
				respond.Error(w, http.StatusInternalServerError, "internal server error")
				return
			}

			if _, ok := allowedSet[role]; !ok {
				respond.Error(w, http.StatusForbidden, "you do not have permission to perform this action")
				return
			}

			next.ServeHTTP(w, WithRole(r, role))
		})
	}
}
