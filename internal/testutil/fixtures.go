package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/taskcamp/taskcamp/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a verified test user with the given identifiers and
// password "test-password" unless another is supplied.
func (f *Fixtures) CreateUser(ctx context.Context, username, email string, password ...string) models.User {
	f.t.Helper()

	pw := "test-password"
	if len(password) > 0 {
		pw = password[0]
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash fixture password: %v", err)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:              primitive.NewObjectID(),
		Username:        username,
		Email:           email,
		PasswordHash:    string(hash),
		IsEmailVerified: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateProject creates a test project owned by creator, including the
// creator's administrator membership row.
func (f *Fixtures) CreateProject(ctx context.Context, name string, creator primitive.ObjectID) models.Project {
	f.t.Helper()

	now := time.Now().UTC()
	project := models.Project{
		ID:        primitive.NewObjectID(),
		Name:      name,
		CreatedBy: creator,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("projects").InsertOne(ctx, project); err != nil {
		f.t.Fatalf("failed to create test project: %v", err)
	}

	f.AddMember(ctx, project.ID, creator, "administrator")
	return project
}

// AddMember inserts a membership row directly.
func (f *Fixtures) AddMember(ctx context.Context, projectID, userID primitive.ObjectID, role string) models.ProjectMember {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.ProjectMember{
		ID:        primitive.NewObjectID(),
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("project_members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}

// CreateTask creates a test task in the given project.
func (f *Fixtures) CreateTask(ctx context.Context, projectID, creator primitive.ObjectID, title string) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	task := models.Task{
		ID:         primitive.NewObjectID(),
		ProjectID:  projectID,
		Title:      title,
		Status:     models.TaskStatusTodo,
		AssignedBy: creator,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("tasks").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

// CreateSubTask creates a test subtask under the given task.
func (f *Fixtures) CreateSubTask(ctx context.Context, taskID, creator primitive.ObjectID, title string) models.SubTask {
	f.t.Helper()

	now := time.Now().UTC()
	st := models.SubTask{
		ID:        primitive.NewObjectID(),
		TaskID:    taskID,
		Title:     title,
		CreatedBy: creator,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("subtasks").InsertOne(ctx, st); err != nil {
		f.t.Fatalf("failed to create test subtask: %v", err)
	}
	return st
}

// CreateNote creates a test project note.
func (f *Fixtures) CreateNote(ctx context.Context, projectID, creator primitive.ObjectID, content string) models.ProjectNote {
	f.t.Helper()

	now := time.Now().UTC()
	n := models.ProjectNote{
		ID:        primitive.NewObjectID(),
		ProjectID: projectID,
		Content:   content,
		CreatedBy: creator,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("project_notes").InsertOne(ctx, n); err != nil {
		f.t.Fatalf("failed to create test note: %v", err)
	}
	return n
}
