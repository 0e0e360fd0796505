package subtaskstore

import (
	"context"
	"errors"
	"time"

	"github.com/taskcamp/taskcamp/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c     *mongo.Collection
	tasks *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:     db.Collection("subtasks"),
		tasks: db.Collection("tasks"),
	}
}

// ErrNotFound is returned when a subtask does not exist in the given project.
var ErrNotFound = errors.New("subtask not found")

// Create inserts a subtask under the task.
func (s *Store) Create(ctx context.Context, taskID, createdBy primitive.ObjectID, title string) (models.SubTask, error) {
	now := time.Now().UTC()
	st := models.SubTask{
		ID:        primitive.NewObjectID(),
		TaskID:    taskID,
		Title:     title,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, st); err != nil {
		return models.SubTask{}, err
	}
	return st, nil
}

// GetInProject loads a subtask and verifies its parent task belongs to the
// project. Subtask routes carry only the project id, so the project scope is
// enforced through the task join.
func (s *Store) GetInProject(ctx context.Context, projectID, subTaskID primitive.ObjectID) (*models.SubTask, error) {
	var st models.SubTask
	err := s.c.FindOne(ctx, bson.M{"_id": subTaskID}).Decode(&st)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	err = s.tasks.FindOne(ctx, bson.M{"_id": st.TaskID, "project_id": projectID}).Err()
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Update replaces title and completion state.
func (s *Store) Update(ctx context.Context, subTaskID primitive.ObjectID, title string, isCompleted bool) (*models.SubTask, error) {
	var st models.SubTask
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": subTaskID},
		bson.M{"$set": bson.M{
			"title":        title,
			"is_completed": isCompleted,
			"updated_at":   time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&st)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Delete removes the subtask. Returns ErrNotFound when absent.
func (s *Store) Delete(ctx context.Context, subTaskID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": subTaskID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByTask returns the task's subtasks in creation order.
func (s *Store) ListByTask(ctx context.Context, taskID primitive.ObjectID) ([]models.SubTask, error) {
	cur, err := s.c.Find(ctx, bson.M{"task_id": taskID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	subtasks := []models.SubTask{}
	if err := cur.All(ctx, &subtasks); err != nil {
		return nil, err
	}
	return subtasks, nil
}
