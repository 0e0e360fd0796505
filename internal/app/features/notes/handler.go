// Package notes implements project-level notes.
package notes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	notestore "github.com/taskcamp/taskcamp/internal/app/store/notes"
	"github.com/taskcamp/taskcamp/internal/app/system/auth"
	"github.com/taskcamp/taskcamp/internal/app/system/htmlsanitize"
	"github.com/taskcamp/taskcamp/internal/app/system/inputval"
	"github.com/taskcamp/taskcamp/internal/app/system/respond"
	"github.com/taskcamp/taskcamp/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the /notes routes.
type Handler struct {
	Notes *notestore.Store
	Log   *zap.Logger
}

// NewHandler constructs the notes handler.
func NewHandler(notes *notestore.Store, logger *zap.Logger) *Handler {
	return &Handler{Notes: notes, Log: logger}
}

func projectIDParam(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "projectId"))
	return id, err == nil
}

func noteIDParam(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "noteId"))
	return id, err == nil
}

type noteRequest struct {
	Content string `json:"content"`
}

// HandleList returns the project's notes with creator details, newest first.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	projectID, ok := projectIDParam(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list notes")
	defer cancel()

	notes, err := h.Notes.ListByProject(ctx, projectID)
	if err != nil {
		h.Log.Error("list notes failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, notes, "notes fetched successfully")
}

// HandleCreate adds a note to the project. Administrator only (gated).
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid access token")
		return
	}
	projectID, ok := projectIDParam(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := inputval.RequiredString("content", req.Content, inputval.MaxBodyLen); len(errs) > 0 {
		respond.Error(w, http.StatusBadRequest, "validation failed", errs...)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create note")
	defer cancel()

	n, err := h.Notes.Create(ctx, projectID, user.ID, htmlsanitize.Sanitize(req.Content))
	if err != nil {
		h.Log.Error("create note failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusCreated, n, "note created successfully")
}

// HandleGet returns one note with its creator's details.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	projectID, ok := projectIDParam(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}
	noteID, ok := noteIDParam(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid note id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get note")
	defer cancel()

	n, err := h.Notes.GetByID(ctx, projectID, noteID)
	if err != nil {
		if errors.Is(err, notestore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "note not found")
			return
		}
		h.Log.Error("get note failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, n, "note fetched successfully")
}

// HandleUpdate replaces the note's content. Administrator only (gated).
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	projectID, ok := projectIDParam(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}
	noteID, ok := noteIDParam(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid note id")
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := inputval.RequiredString("content", req.Content, inputval.MaxBodyLen); len(errs) > 0 {
		respond.Error(w, http.StatusBadRequest, "validation failed", errs...)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update note")
	defer cancel()

	n, err := h.Notes.Update(ctx, projectID, noteID, htmlsanitize.Sanitize(req.Content))
	if err != nil {
		if errors.Is(err, notestore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "note not found")
			return
		}
		h.Log.Error("update note failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, n, "note updated successfully")
}

// HandleDelete removes the note. Administrator only (gated).
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := projectIDParam(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}
	noteID, ok := noteIDParam(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid note id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete note")
	defer cancel()

	if err := h.Notes.Delete(ctx, projectID, noteID); err != nil {
		if errors.Is(err, notestore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "note not found")
			return
		}
		h.Log.Error("delete note failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, nil, "note deleted successfully")
}
