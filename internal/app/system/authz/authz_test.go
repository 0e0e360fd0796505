package authz_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/taskcamp/taskcamp/internal/app/system/auth"
	"github.com/taskcamp/taskcamp/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestParseRole(t *testing.T) {
	for _, want := range authz.AllRoles {
		got, ok := authz.ParseRole(string(want))
		if !ok || got != want {
			t.Errorf("ParseRole(%q): got (%q, %v)", want, got, ok)
		}
	}
	for _, bad := range []string{"", "admin", "Administrator", "project_admin", "owner"} {
		if _, ok := authz.ParseRole(bad); ok {
			t.Errorf("ParseRole(%q): accepted an invalid role", bad)
		}
	}
}

// mapResolver returns roles from a fixed membership table.
type mapResolver struct {
	roles map[primitive.ObjectID]authz.Role
	err   error
}

func (m *mapResolver) Role(_ context.Context, _ /*projectID*/, userID primitive.ObjectID) (authz.Role, error) {
	if m.err != nil {
		return "", m.err
	}
	role, ok := m.roles[userID]
	if !ok {
		return "", authz.ErrNoMembership
	}
	return role, nil
}

func gatedRequest(t *testing.T, resolver authz.Resolver, user *auth.CurrentUser, projectID string, allowed ...authz.Role) (*httptest.ResponseRecorder, *authz.Role) {
	t.Helper()

	var granted *authz.Role
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if role, ok := authz.RoleFromContext(r.Context()); ok {
			granted = &role
		}
		w.WriteHeader(http.StatusOK)
	})

	r := chi.NewRouter()
	r.With(authz.RequireProjectRole(resolver, zap.NewNop(), allowed...)).
		Get("/projects/{projectId}", inner)

	req := httptest.NewRequest("GET", "/projects/"+projectID, nil)
	if user != nil {
		req = auth.WithUser(req, user)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec, granted
}

func TestRequireProjectRole_Allowed(t *testing.T) {
	user := &auth.CurrentUser{ID: primitive.NewObjectID()}
	resolver := &mapResolver{roles: map[primitive.ObjectID]authz.Role{user.ID: authz.RoleProjectAdmin}}

	rec, granted := gatedRequest(t, resolver, user, primitive.NewObjectID().Hex(),
		authz.RoleAdministrator, authz.RoleProjectAdmin)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if granted == nil || *granted != authz.RoleProjectAdmin {
		t.Errorf("granted role: got %v", granted)
	}
}

func TestRequireProjectRole_Forbidden(t *testing.T) {
	user := &auth.CurrentUser{ID: primitive.NewObjectID()}
	resolver := &mapResolver{roles: map[primitive.ObjectID]authz.Role{user.ID: authz.RoleMember}}

	rec, _ := gatedRequest(t, resolver, user, primitive.NewObjectID().Hex(),
		authz.RoleAdministrator)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rec.Code)
	}
}

func TestRequireProjectRole_NonMemberGets404(t *testing.T) {
	// No membership must look identical to no project at all.
	user := &auth.CurrentUser{ID: primitive.NewObjectID()}
	resolver := &mapResolver{roles: map[primitive.ObjectID]authz.Role{}}

	rec, _ := gatedRequest(t, resolver, user, primitive.NewObjectID().Hex(),
		authz.RoleAdministrator, authz.RoleProjectAdmin, authz.RoleMember)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

func TestRequireProjectRole_NoUser(t *testing.T) {
	resolver := &mapResolver{roles: map[primitive.ObjectID]authz.Role{}}

	rec, _ := gatedRequest(t, resolver, nil, primitive.NewObjectID().Hex(), authz.RoleMember)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
}

func TestRequireProjectRole_MalformedProjectID(t *testing.T) {
	user := &auth.CurrentUser{ID: primitive.NewObjectID()}
	resolver := &mapResolver{roles: map[primitive.ObjectID]authz.Role{user.ID: authz.RoleMember}}

	rec, _ := gatedRequest(t, resolver, user, "not-an-object-id", authz.RoleMember)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

func TestRequireProjectRole_ResolverFailure(t *testing.T) {
	user := &auth.CurrentUser{ID: primitive.NewObjectID()}
	resolver := &mapResolver{err: errors.New("connection reset")}

	rec, _ := gatedRequest(t, resolver, user, primitive.NewObjectID().Hex(), authz.RoleMember)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
}
