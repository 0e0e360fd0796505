// Package tasks implements task and subtask management inside a project.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	memberstore "github.com/taskcamp/taskcamp/internal/app/store/members"
	subtaskstore "github.com/taskcamp/taskcamp/internal/app/store/subtasks"
	taskstore "github.com/taskcamp/taskcamp/internal/app/store/tasks"
	"github.com/taskcamp/taskcamp/internal/app/system/auth"
	"github.com/taskcamp/taskcamp/internal/app/system/authz"
	"github.com/taskcamp/taskcamp/internal/app/system/htmlsanitize"
	"github.com/taskcamp/taskcamp/internal/app/system/inputval"
	"github.com/taskcamp/taskcamp/internal/app/system/respond"
	"github.com/taskcamp/taskcamp/internal/app/system/timeouts"
	"github.com/taskcamp/taskcamp/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the /tasks routes.
type Handler struct {
	Tasks    *taskstore.Store
	SubTasks *subtaskstore.Store
	Members  *memberstore.Store
	Log      *zap.Logger
}

// NewHandler constructs the tasks handler.
func NewHandler(tasks *taskstore.Store, subtasks *subtaskstore.Store, members *memberstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Tasks: tasks, SubTasks: subtasks, Members: members, Log: logger}
}

func projectIDParam(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "projectId"))
	return id, err == nil
}

func objectIDParam(r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	return id, err == nil
}

type attachmentRequest struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

type taskRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      string              `json:"status"`
	AssignedTo  string              `json:"assignedTo"`
	Attachments []attachmentRequest `json:"attachments"`
}

// resolveAssignee parses the optional assignee id and confirms the user is a
// member of the project. Tasks are never assigned to outsiders.
func (h *Handler) resolveAssignee(ctx context.Context, projectID primitive.ObjectID, raw string) (*primitive.ObjectID, string) {
	if raw == "" {
		return nil, ""
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, "invalid assignee id"
	}
	if _, err := h.Members.Get(ctx, projectID, id); err != nil {
		if errors.Is(err, memberstore.ErrNotFound) {
			return nil, "assignee is not a member of this project"
		}
		return nil, "internal server error"
	}
	return &id, ""
}

// buildAttachments assigns ids to incoming attachment references.
func buildAttachments(reqs []attachmentRequest) []models.Attachment {
	if reqs == nil {
		return nil
	}
	out := make([]models.Attachment, 0, len(reqs))
	for _, a := range reqs {
		if strings.TrimSpace(a.URL) == "" {
			continue
		}
		out = append(out, models.Attachment{
			ID:       uuid.NewString(),
			URL:      strings.TrimSpace(a.URL),
			MimeType: a.MimeType,
			Size:     a.Size,
		})
	}
	return out
}

// HandleList returns the project's tasks with assignee details, newest first.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	projectID, ok := projectIDParam(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list tasks")
	defer cancel()

	tasks, err := h.Tasks.ListByProject(ctx, projectID)
	if err != nil {
		h.Log.Error("list tasks failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, tasks, "tasks fetched successfully")
}

// HandleCreate creates a task in the project.
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

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := inputval.RequiredString("title", req.Title, inputval.MaxTitleLen); len(errs) > 0 {
		respond.Error(w, http.StatusBadRequest, "validation failed", errs...)
		return
	}
	status := req.Status
	if status == "" {
		status = models.TaskStatusTodo
	}
	if !models.ValidTaskStatus(status) {
		respond.Error(w, http.StatusBadRequest, "invalid task status")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create task")
	defer cancel()

	assignee, problem := h.resolveAssignee(ctx, projectID, req.AssignedTo)
	if problem != "" {
		respond.Error(w, http.StatusBadRequest, problem)
		return
	}

	task, err := h.Tasks.Create(ctx, models.Task{
		ProjectID:   projectID,
		Title:       strings.TrimSpace(req.Title),
		Description: htmlsanitize.Sanitize(req.Description),
		Status:      status,
		AssignedTo:  assignee,
		AssignedBy:  user.ID,
		Attachments: buildAttachments(req.Attachments),
	})
	if err != nil {
		h.Log.Error("create task failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusCreated, task, "task created successfully")
}

// HandleGet returns one task with its assignee and subtasks.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	projectID, ok := projectIDParam(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}
	taskID, ok := objectIDParam(r, "taskId")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid task id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "get task")
	defer cancel()

	detail, err := h.Tasks.GetDetail(ctx, projectID, taskID)
	if err != nil {
		if errors.Is(err, taskstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "task not found")
			return
		}
		h.Log.Error("get task failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, detail, "task fetched successfully")
}

// HandleUpdate replaces the task's mutable fields. Absent attachments leave
// the stored list untouched.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	projectID, ok := projectIDParam(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}
	taskID, ok := objectIDParam(r, "taskId")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := inputval.RequiredString("title", req.Title, inputval.MaxTitleLen); len(errs) > 0 {
		respond.Error(w, http.StatusBadRequest, "validation failed", errs...)
		return
	}
	if !models.ValidTaskStatus(req.Status) {
		respond.Error(w, http.StatusBadRequest, "invalid task status")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "update task")
	defer cancel()

	assignee, problem := h.resolveAssignee(ctx, projectID, req.AssignedTo)
	if problem != "" {
		respond.Error(w, http.StatusBadRequest, problem)
		return
	}

	err := h.Tasks.Update(ctx, projectID, taskID, taskstore.Update{
		Title:       strings.TrimSpace(req.Title),
		Description: htmlsanitize.Sanitize(req.Description),
		Status:      req.Status,
		AssignedTo:  assignee,
		Attachments: buildAttachments(req.Attachments),
	})
	if err != nil {
		if errors.Is(err, taskstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "task not found")
			return
		}
		h.Log.Error("update task failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	task, err := h.Tasks.GetByID(ctx, projectID, taskID)
	if err != nil {
		h.Log.Error("reload task failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, task, "task updated successfully")
}

// HandleDelete removes the task and its subtasks.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := projectIDParam(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}
	taskID, ok := objectIDParam(r, "taskId")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid task id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete task")
	defer cancel()

	if err := h.Tasks.Delete(ctx, projectID, taskID); err != nil {
		if errors.Is(err, taskstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "task not found")
			return
		}
		h.Log.Error("delete task failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, nil, "task deleted successfully")
}

type subTaskCreateRequest struct {
	Title string `json:"title"`
}

// HandleCreateSubTask adds a subtask under a task of the project.
func (h *Handler) HandleCreateSubTask(w http.ResponseWriter, r *http.Request) {
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
	taskID, ok := objectIDParam(r, "taskId")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req subTaskCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := inputval.RequiredString("title", req.Title, inputval.MaxTitleLen); len(errs) > 0 {
		respond.Error(w, http.StatusBadRequest, "validation failed", errs...)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create subtask")
	defer cancel()

	// The parent task must live in the gated project.
	if _, err := h.Tasks.GetByID(ctx, projectID, taskID); err != nil {
		if errors.Is(err, taskstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "task not found")
			return
		}
		h.Log.Error("create subtask: task lookup failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	st, err := h.SubTasks.Create(ctx, taskID, user.ID, strings.TrimSpace(req.Title))
	if err != nil {
		h.Log.Error("create subtask failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusCreated, st, "subtask created successfully")
}

type subTaskUpdateRequest struct {
	Title       *string `json:"title"`
	IsCompleted *bool   `json:"isCompleted"`
}

// HandleUpdateSubTask updates a subtask. Any member may toggle completion;
// only administrators and project administrators may change the title.
func (h *Handler) HandleUpdateSubTask(w http.ResponseWriter, r *http.Request) {
	projectID, ok := projectIDParam(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}
	subTaskID, ok := objectIDParam(r, "subTaskId")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid subtask id")
		return
	}

	var req subTaskUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update subtask")
	defer cancel()

	current, err := h.SubTasks.GetInProject(ctx, projectID, subTaskID)
	if err != nil {
		if errors.Is(err, subtaskstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "subtask not found")
			return
		}
		h.Log.Error("update subtask: lookup failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	title := current.Title
	if req.Title != nil && strings.TrimSpace(*req.Title) != current.Title {
		role, _ := authz.RoleFromContext(r.Context())
		if role != authz.RoleAdministrator && role != authz.RoleProjectAdmin {
			respond.Error(w, http.StatusForbidden, "only project administrators can rename subtasks")
			return
		}
		if errs := inputval.RequiredString("title", *req.Title, inputval.MaxTitleLen); len(errs) > 0 {
			respond.Error(w, http.StatusBadRequest, "validation failed", errs...)
			return
		}
		title = strings.TrimSpace(*req.Title)
	}

	completed := current.IsCompleted
	if req.IsCompleted != nil {
		completed = *req.IsCompleted
	}

	st, err := h.SubTasks.Update(ctx, subTaskID, title, completed)
	if err != nil {
		if errors.Is(err, subtaskstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "subtask not found")
			return
		}
		h.Log.Error("update subtask failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, st, "subtask updated successfully")
}

// HandleDeleteSubTask removes a subtask. Administrator roles only (gated).
func (h *Handler) HandleDeleteSubTask(w http.ResponseWriter, r *http.Request) {
	projectID, ok := projectIDParam(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}
	subTaskID, ok := objectIDParam(r, "subTaskId")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid subtask id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete subtask")
	defer cancel()

	if _, err := h.SubTasks.GetInProject(ctx, projectID, subTaskID); err != nil {
		if errors.Is(err, subtaskstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "subtask not found")
			return
		}
		h.Log.Error("delete subtask: lookup failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.SubTasks.Delete(ctx, subTaskID); err != nil {
		if errors.Is(err, subtaskstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "subtask not found")
			return
		}
		h.Log.Error("delete subtask failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, nil, "subtask deleted successfully")
}
