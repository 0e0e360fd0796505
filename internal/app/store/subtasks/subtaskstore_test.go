package subtaskstore_test

import (
	"testing"

	subtaskstore "github.com/taskcamp/taskcamp/internal/app/store/subtasks"
	"github.com/taskcamp/taskcamp/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateAndGetInProject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := subtaskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "owner", "owner@example.com")
	project := fixtures.CreateProject(ctx, "Apollo", owner.ID)
	task := fixtures.CreateTask(ctx, project.ID, owner.ID, "launch")

	created, err := store.Create(ctx, task.ID, owner.ID, "fuel")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.IsCompleted {
		t.Error("new subtask must start incomplete")
	}

	got, err := store.GetInProject(ctx, project.ID, created.ID)
	if err != nil || got.Title != "fuel" {
		t.Errorf("GetInProject: got %+v, err %v", got, err)
	}

	// A subtask is invisible through a project that does not own its task.
	if _, err := store.GetInProject(ctx, primitive.NewObjectID(), created.ID); err != subtaskstore.ErrNotFound {
		t.Errorf("cross-project get: got %v, want ErrNotFound", err)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := subtaskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "owner", "owner@example.com")
	project := fixtures.CreateProject(ctx, "Apollo", owner.ID)
	task := fixtures.CreateTask(ctx, project.ID, owner.ID, "launch")
	st := fixtures.CreateSubTask(ctx, task.ID, owner.ID, "fuel")

	updated, err := store.Update(ctx, st.ID, "fuel tanks", true)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != "fuel tanks" || !updated.IsCompleted {
		t.Errorf("updated subtask: %+v", updated)
	}

	if _, err := store.Update(ctx, primitive.NewObjectID(), "x", false); err != subtaskstore.ErrNotFound {
		t.Errorf("Update unknown: got %v, want ErrNotFound", err)
	}
}

func TestStore_DeleteAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := subtaskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "owner", "owner@example.com")
	project := fixtures.CreateProject(ctx, "Apollo", owner.ID)
	task := fixtures.CreateTask(ctx, project.ID, owner.ID, "launch")
	a := fixtures.CreateSubTask(ctx, task.ID, owner.ID, "fuel")
	fixtures.CreateSubTask(ctx, task.ID, owner.ID, "ignition")

	if err := store.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, a.ID); err != subtaskstore.ErrNotFound {
		t.Errorf("second Delete: got %v, want ErrNotFound", err)
	}

	remaining, err := store.ListByTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("ListByTask failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Title != "ignition" {
		t.Errorf("remaining subtasks: %+v", remaining)
	}
}
