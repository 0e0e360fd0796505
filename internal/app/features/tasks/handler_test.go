package tasks_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/taskcamp/taskcamp/internal/app/features/tasks"
	memberstore "github.com/taskcamp/taskcamp/internal/app/store/members"
	subtaskstore "github.com/taskcamp/taskcamp/internal/app/store/subtasks"
	taskstore "github.com/taskcamp/taskcamp/internal/app/store/tasks"
	"github.com/taskcamp/taskcamp/internal/app/system/authz"
	"github.com/taskcamp/taskcamp/internal/domain/models"
	"github.com/taskcamp/taskcamp/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(db *mongo.Database) *tasks.Handler {
	return tasks.NewHandler(taskstore.New(db), subtaskstore.New(db), memberstore.New(db), zap.NewNop())
}

func jsonReq(method, target string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func asRole(r *http.Request, u models.User, role authz.Role, projectID primitive.ObjectID) *http.Request {
	r = testutil.AsProjectRole(r, testutil.RequestUser(u), role)
	return testutil.WithChiURLParam(r, "projectId", projectID.Hex())
}

func TestHandleCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newTestHandler(db)

	owner := fixtures.CreateUser(ctx, "owner", "owner@example.com")
	member := fixtures.CreateUser(ctx, "member", "member@example.com")
	outsider := fixtures.CreateUser(ctx, "outsider", "outsider@example.com")
	p := fixtures.CreateProject(ctx, "Apollo", owner.ID)
	fixtures.AddMember(ctx, p.ID, member.ID, "member")

	rec := httptest.NewRecorder()
	h.HandleCreate(rec, asRole(jsonReq("POST", "/tasks", map[string]any{
		"title":       "Build the lander",
		"description": "<b>legs</b><script>x</script>",
		"assignedTo":  member.ID.Hex(),
		"attachments": []map[string]any{{"url": "https://files.example.com/lander.pdf", "mimeType": "application/pdf", "size": 1024}},
	}), owner, authz.RoleAdministrator, p.ID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d, body %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Data models.Task `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if created.Data.Status != models.TaskStatusTodo {
		t.Errorf("default status: got %q", created.Data.Status)
	}
	if created.Data.Description != "<b>legs</b>" {
		t.Errorf("description not sanitized: %q", created.Data.Description)
	}
	if created.Data.AssignedTo == nil || *created.Data.AssignedTo != member.ID {
		t.Errorf("assignee: got %v", created.Data.AssignedTo)
	}
	if len(created.Data.Attachments) != 1 || created.Data.Attachments[0].ID == "" {
		t.Errorf("attachment ids: got %+v", created.Data.Attachments)
	}

	// Assignee outside the project is rejected.
	rec = httptest.NewRecorder()
	h.HandleCreate(rec, asRole(jsonReq("POST", "/tasks", map[string]any{
		"title":      "Orphan task",
		"assignedTo": outsider.ID.Hex(),
	}), owner, authz.RoleAdministrator, p.ID))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("outsider assignee: got %d, want 400", rec.Code)
	}

	// Unknown status is rejected.
	rec = httptest.NewRecorder()
	h.HandleCreate(rec, asRole(jsonReq("POST", "/tasks", map[string]any{
		"title":  "Bad status",
		"status": "blocked",
	}), owner, authz.RoleAdministrator, p.ID))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad status: got %d, want 400", rec.Code)
	}
}

func TestHandleListAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newTestHandler(db)

	owner := fixtures.CreateUser(ctx, "owner", "owner@example.com")
	p := fixtures.CreateProject(ctx, "Apollo", owner.ID)
	task := fixtures.CreateTask(ctx, p.ID, owner.ID, "Build the lander")
	fixtures.CreateSubTask(ctx, task.ID, owner.ID, "Weld the frame")

	rec := httptest.NewRecorder()
	h.HandleList(rec, asRole(httptest.NewRequest("GET", "/tasks", nil),
		owner, authz.RoleMember, p.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: got %d", rec.Code)
	}
	var listed struct {
		Data []models.TaskWithAssignee `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(listed.Data) != 1 {
		t.Fatalf("listed tasks: got %d, want 1", len(listed.Data))
	}

	detail := httptest.NewRecorder()
	h.HandleGet(detail, testutil.WithChiURLParam(asRole(
		httptest.NewRequest("GET", "/tasks", nil), owner, authz.RoleMember, p.ID),
		"taskId", task.ID.Hex()))
	if detail.Code != http.StatusOK {
		t.Fatalf("get detail: got %d", detail.Code)
	}
	var got struct {
		Data models.TaskDetail `json:"data"`
	}
	if err := json.Unmarshal(detail.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal detail: %v", err)
	}
	if len(got.Data.SubTasks) != 1 || got.Data.SubTasks[0].Title != "Weld the frame" {
		t.Errorf("subtasks in detail: %+v", got.Data.SubTasks)
	}

	absent := httptest.NewRecorder()
	h.HandleGet(absent, testutil.WithChiURLParam(asRole(
		httptest.NewRequest("GET", "/tasks", nil), owner, authz.RoleMember, p.ID),
		"taskId", primitive.NewObjectID().Hex()))
	if absent.Code != http.StatusNotFound {
		t.Errorf("absent task: got %d, want 404", absent.Code)
	}
}

func TestHandleUpdateAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newTestHandler(db)

	owner := fixtures.CreateUser(ctx, "owner", "owner@example.com")
	p := fixtures.CreateProject(ctx, "Apollo", owner.ID)
	task := fixtures.CreateTask(ctx, p.ID, owner.ID, "Build the lander")
	fixtures.CreateSubTask(ctx, task.ID, owner.ID, "Weld the frame")

	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, testutil.WithChiURLParam(asRole(
		jsonReq("PUT", "/tasks", map[string]any{
			"title":  "Build the lander",
			"status": "in_progress",
		}), owner, authz.RoleProjectAdmin, p.ID), "taskId", task.ID.Hex()))
	if rec.Code != http.StatusOK {
		t.Fatalf("update: got %d, body %s", rec.Code, rec.Body.String())
	}
	var updated struct {
		Data models.Task `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if updated.Data.Status != models.TaskStatusInProgress {
		t.Errorf("status after update: %q", updated.Data.Status)
	}

	del := httptest.NewRecorder()
	h.HandleDelete(del, testutil.WithChiURLParam(asRole(
		httptest.NewRequest("DELETE", "/tasks", nil), owner, authz.RoleAdministrator, p.ID),
		"taskId", task.ID.Hex()))
	if del.Code != http.StatusOK {
		t.Fatalf("delete: got %d", del.Code)
	}

	subtasks, err := subtaskstore.New(db).ListByTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("list subtasks: %v", err)
	}
	if len(subtasks) != 0 {
		t.Errorf("subtasks after task delete: got %d, want 0", len(subtasks))
	}
}

func TestHandleCreateSubTask(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newTestHandler(db)

	owner := fixtures.CreateUser(ctx, "owner", "owner@example.com")
	p := fixtures.CreateProject(ctx, "Apollo", owner.ID)
	other := fixtures.CreateProject(ctx, "Gemini", owner.ID)
	task := fixtures.CreateTask(ctx, other.ID, owner.ID, "Elsewhere")

	// Parent task in another project reads as absent.
	rec := httptest.NewRecorder()
	h.HandleCreateSubTask(rec, testutil.WithChiURLParam(asRole(
		jsonReq("POST", "/tasks", map[string]string{"title": "Stray"}),
		owner, authz.RoleAdministrator, p.ID), "taskId", task.ID.Hex()))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("cross-project subtask: got %d, want 404", rec.Code)
	}

	mine := fixtures.CreateTask(ctx, p.ID, owner.ID, "Build the lander")
	rec = httptest.NewRecorder()
	h.HandleCreateSubTask(rec, testutil.WithChiURLParam(asRole(
		jsonReq("POST", "/tasks", map[string]string{"title": "Weld the frame"}),
		owner, authz.RoleAdministrator, p.ID), "taskId", mine.ID.Hex()))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create subtask: got %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestHandleUpdateSubTask_RoleRules(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newTestHandler(db)

	owner := fixtures.CreateUser(ctx, "owner", "owner@example.com")
	member := fixtures.CreateUser(ctx, "member", "member@example.com")
	p := fixtures.CreateProject(ctx, "Apollo", owner.ID)
	fixtures.AddMember(ctx, p.ID, member.ID, "member")
	task := fixtures.CreateTask(ctx, p.ID, owner.ID, "Build the lander")
	st := fixtures.CreateSubTask(ctx, task.ID, owner.ID, "Weld the frame")

	// A plain member may toggle completion.
	rec := httptest.NewRecorder()
	h.HandleUpdateSubTask(rec, testutil.WithChiURLParam(asRole(
		jsonReq("PUT", "/tasks", map[string]any{"isCompleted": true}),
		member, authz.RoleMember, p.ID), "subTaskId", st.ID.Hex()))
	if rec.Code != http.StatusOK {
		t.Fatalf("member toggle: got %d, body %s", rec.Code, rec.Body.String())
	}
	var toggled struct {
		Data models.SubTask `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &toggled); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !toggled.Data.IsCompleted || toggled.Data.Title != "Weld the frame" {
		t.Errorf("after member toggle: %+v", toggled.Data)
	}

	// A plain member may not rename.
	rec = httptest.NewRecorder()
	h.HandleUpdateSubTask(rec, testutil.WithChiURLParam(asRole(
		jsonReq("PUT", "/tasks", map[string]any{"title": "Renamed"}),
		member, authz.RoleMember, p.ID), "subTaskId", st.ID.Hex()))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member rename: got %d, want 403", rec.Code)
	}

	// A project administrator may rename.
	rec = httptest.NewRecorder()
	h.HandleUpdateSubTask(rec, testutil.WithChiURLParam(asRole(
		jsonReq("PUT", "/tasks", map[string]any{"title": "Weld the whole frame"}),
		owner, authz.RoleProjectAdmin, p.ID), "subTaskId", st.ID.Hex()))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin rename: got %d, body %s", rec.Code, rec.Body.String())
	}
	var renamed struct {
		Data models.SubTask `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &renamed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if renamed.Data.Title != "Weld the whole frame" {
		t.Errorf("title after admin rename: %q", renamed.Data.Title)
	}
	if !renamed.Data.IsCompleted {
		t.Error("completion state lost on rename")
	}
}

func TestHandleDeleteSubTask(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newTestHandler(db)

	owner := fixtures.CreateUser(ctx, "owner", "owner@example.com")
	p := fixtures.CreateProject(ctx, "Apollo", owner.ID)
	task := fixtures.CreateTask(ctx, p.ID, owner.ID, "Build the lander")
	st := fixtures.CreateSubTask(ctx, task.ID, owner.ID, "Weld the frame")

	rec := httptest.NewRecorder()
	h.HandleDeleteSubTask(rec, testutil.WithChiURLParam(asRole(
		httptest.NewRequest("DELETE", "/tasks", nil), owner, authz.RoleAdministrator, p.ID),
		"subTaskId", st.ID.Hex()))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete subtask: got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.HandleDeleteSubTask(rec, testutil.WithChiURLParam(asRole(
		httptest.NewRequest("DELETE", "/tasks", nil), owner, authz.RoleAdministrator, p.ID),
		"subTaskId", st.ID.Hex()))
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete absent subtask: got %d, want 404", rec.Code)
	}
}
