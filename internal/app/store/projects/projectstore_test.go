package projectstore_test

import (
	"testing"

	projectstore "github.com/taskcamp/taskcamp/internal/app/store/projects"
	"github.com/taskcamp/taskcamp/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "owner", "owner@example.com")

	p, err := store.Create(ctx, "Apollo", "moon landing", owner.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if p.CreatedBy != owner.ID {
		t.Errorf("createdBy: got %v", p.CreatedBy)
	}

	// The creator must hold an administrator membership row.
	n, err := db.Collection("project_members").CountDocuments(ctx, bson.M{
		"project_id": p.ID,
		"user_id":    owner.ID,
		"role":       "administrator",
	})
	if err != nil {
		t.Fatalf("count memberships: %v", err)
	}
	if n != 1 {
		t.Errorf("administrator membership rows: got %d, want 1", n)
	}
}

func TestStore_GetUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "owner", "owner@example.com")
	p, err := store.Create(ctx, "Apollo", "", owner.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.GetByID(ctx, p.ID)
	if err != nil || got.Name != "Apollo" {
		t.Errorf("GetByID: got %+v, err %v", got, err)
	}
	if _, err := store.GetByID(ctx, primitive.NewObjectID()); err != projectstore.ErrNotFound {
		t.Errorf("GetByID unknown: got %v, want ErrNotFound", err)
	}

	updated, err := store.Update(ctx, p.ID, "Artemis", "return trip")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "Artemis" || updated.Description != "return trip" {
		t.Errorf("updated project: %+v", updated)
	}
	if _, err := store.Update(ctx, primitive.NewObjectID(), "x", ""); err != projectstore.ErrNotFound {
		t.Errorf("Update unknown: got %v, want ErrNotFound", err)
	}
}

func TestStore_Delete_Cascades(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "owner", "owner@example.com")
	p, err := store.Create(ctx, "Apollo", "", owner.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	task := fixtures.CreateTask(ctx, p.ID, owner.ID, "launch")
	fixtures.CreateSubTask(ctx, task.ID, owner.ID, "fuel")
	fixtures.CreateNote(ctx, p.ID, owner.ID, "countdown checklist")

	// Unrelated project data must survive the cascade.
	other := fixtures.CreateProject(ctx, "Other", owner.ID)
	otherTask := fixtures.CreateTask(ctx, other.ID, owner.ID, "keep me")

	if err := store.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, p.ID); err != projectstore.ErrNotFound {
		t.Errorf("second Delete: got %v, want ErrNotFound", err)
	}

	counts := map[string]bson.M{
		"projects":        {"_id": p.ID},
		"project_members": {"project_id": p.ID},
		"tasks":           {"project_id": p.ID},
		"subtasks":        {"task_id": task.ID},
		"project_notes":   {"project_id": p.ID},
	}
	for coll, filter := range counts {
		n, err := db.Collection(coll).CountDocuments(ctx, filter)
		if err != nil {
			t.Fatalf("count %s: %v", coll, err)
		}
		if n != 0 {
			t.Errorf("%s: %d documents survived the cascade", coll, n)
		}
	}

	n, err := db.Collection("tasks").CountDocuments(ctx, bson.M{"_id": otherTask.ID})
	if err != nil {
		t.Fatalf("count other tasks: %v", err)
	}
	if n != 1 {
		t.Error("cascade deleted data from another project")
	}
}
