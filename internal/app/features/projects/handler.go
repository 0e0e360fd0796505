// Package projects implements project CRUD and membership management.
package projects

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	memberstore "github.com/taskcamp/taskcamp/internal/app/store/members"
	projectstore "github.com/taskcamp/taskcamp/internal/app/store/projects"
	userstore "github.com/taskcamp/taskcamp/internal/app/store/users"
	"github.com/taskcamp/taskcamp/internal/app/system/auth"
	"github.com/taskcamp/taskcamp/internal/app/system/authz"
	"github.com/taskcamp/taskcamp/internal/app/system/htmlsanitize"
	"github.com/taskcamp/taskcamp/internal/app/system/inputval"
	"github.com/taskcamp/taskcamp/internal/app/system/respond"
	"github.com/taskcamp/taskcamp/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the /projects routes.
type Handler struct {
	Projects *projectstore.Store
	Members  *memberstore.Store
	Users    *userstore.Store
	Log      *zap.Logger
}

// NewHandler constructs the projects handler.
func NewHandler(projects *projectstore.Store, members *memberstore.Store, users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Projects: projects, Members: members, Users: users, Log: logger}
}

func projectIDParam(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "projectId"))
	return id, err == nil
}

// HandleList returns every project the caller belongs to, with member counts
// and the caller's role.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid access token")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list projects")
	defer cancel()

	projects, err := h.Members.ListProjectsFor(ctx, user.ID)
	if err != nil {
		h.Log.Error("list projects failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, projects, "projects fetched successfully")
}

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HandleCreate creates a project; the creator becomes its administrator.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid access token")
		return
	}

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := inputval.RequiredString("name", req.Name, inputval.MaxNameLen); len(errs) > 0 {
		respond.Error(w, http.StatusBadRequest, "validation failed", errs...)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create project")
	defer cancel()

	p, err := h.Projects.Create(ctx, strings.TrimSpace(req.Name), htmlsanitize.Sanitize(req.Description), user.ID)
	if err != nil {
		h.Log.Error("create project failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusCreated, p, "project created successfully")
}

// HandleGet returns one project. The role gate has already confirmed the
// caller's membership.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := projectIDParam(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get project")
	defer cancel()

	p, err := h.Projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, projectstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "project not found")
			return
		}
		h.Log.Error("get project failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, p, "project fetched successfully")
}

// HandleUpdate replaces name and description. Administrator only (gated).
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := projectIDParam(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := inputval.RequiredString("name", req.Name, inputval.MaxNameLen); len(errs) > 0 {
		respond.Error(w, http.StatusBadRequest, "validation failed", errs...)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update project")
	defer cancel()

	p, err := h.Projects.Update(ctx, id, strings.TrimSpace(req.Name), htmlsanitize.Sanitize(req.Description))
	if err != nil {
		if errors.Is(err, projectstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "project not found")
			return
		}
		h.Log.Error("update project failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, p, "project updated successfully")
}

// HandleDelete removes the project and everything under it. Administrator
// only (gated).
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := projectIDParam(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete project")
	defer cancel()

	if err := h.Projects.Delete(ctx, id); err != nil {
		if errors.Is(err, projectstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "project not found")
			return
		}
		h.Log.Error("delete project failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, nil, "project deleted successfully")
}

// HandleListMembers returns the project's members with user details.
func (h *Handler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := projectIDParam(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list project members")
	defer cancel()

	members, err := h.Members.ListByProject(ctx, id)
	if err != nil {
		h.Log.Error("list members failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, members, "project members fetched successfully")
}

type inviteRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// HandleInvite adds a user to the project by email or username, or updates
// their role if they are already a member. The lookup and the write are
// explicit steps, so a role change on an existing member is visible as such.
func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	id, ok := projectIDParam(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}

	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" && req.Username == "" {
		respond.Error(w, http.StatusBadRequest, "email or username is required")
		return
	}
	role, ok := authz.ParseRole(req.Role)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid role")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "invite member")
	defer cancel()

	invitee, err := h.Users.FindByLogin(ctx, req.Email, req.Username)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, http.StatusNotFound, "user does not exist")
			return
		}
		h.Log.Error("invite: user lookup failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	existing, err := h.Members.Get(ctx, id, invitee.ID)
	switch {
	case err == nil:
		if err := h.Members.UpdateRole(ctx, id, invitee.ID, role); err != nil {
			h.Log.Error("invite: role update failed", zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "internal server error")
			return
		}
		existing.Role = role.String()
		respond.JSON(w, http.StatusOK, existing, "member role updated")
	case errors.Is(err, memberstore.ErrNotFound):
		m, err := h.Members.Add(ctx, id, invitee.ID, role)
		if err != nil {
			h.Log.Error("invite: add member failed", zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "internal server error")
			return
		}
		respond.JSON(w, http.StatusCreated, m, "member added to project")
	default:
		h.Log.Error("invite: membership lookup failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

type memberRoleRequest struct {
	Role string `json:"role"`
}

// HandleUpdateMemberRole changes an existing member's role.
func (h *Handler) HandleUpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	id, ok := projectIDParam(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userId"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req memberRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	role, ok := authz.ParseRole(req.Role)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid role")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update member role")
	defer cancel()

	if err := h.Members.UpdateRole(ctx, id, userID, role); err != nil {
		if errors.Is(err, memberstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "member not found")
			return
		}
		h.Log.Error("update member role failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, nil, "member role updated")
}

// HandleRemoveMember removes a member from the project.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	id, ok := projectIDParam(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userId"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "remove member")
	defer cancel()

	if err := h.Members.Remove(ctx, id, userID); err != nil {
		if errors.Is(err, memberstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "member not found")
			return
		}
		h.Log.Error("remove member failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, nil, "member removed from project")
}
