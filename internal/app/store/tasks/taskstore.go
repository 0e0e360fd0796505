package taskstore

import (
	"context"
	"errors"
	"time"

	"github.com/taskcamp/taskcamp/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c        *mongo.Collection
	subtasks *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:        db.Collection("tasks"),
		subtasks: db.Collection("subtasks"),
	}
}

// ErrNotFound is returned when a task does not exist in the given project.
var ErrNotFound = errors.New("task not found")

// assigneeLookup joins the optional assignee's public user fields.
var assigneeLookup = []bson.D{
	{{Key: "$lookup", Value: bson.M{
		"from":         "users",
		"localField":   "assigned_to",
		"foreignField": "_id",
		"as":           "assignee",
		"pipeline": []bson.M{
			{"$project": bson.M{
				"_id":        1,
				"username":   1,
				"email":      1,
				"full_name":  1,
				"avatar_url": 1,
			}},
		},
	}}},
	{{Key: "$unwind", Value: bson.M{
		"path":                       "$assignee",
		"preserveNullAndEmptyArrays": true,
	}}},
}

// Create inserts a new task.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	if t.Status == "" {
		t.Status = models.TaskStatusTodo
	}
	if t.Attachments == nil {
		t.Attachments = []models.Attachment{}
	}
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// GetByID loads a task scoped to its project, so a task id from another
// project behaves as absent.
func (s *Store) GetByID(ctx context.Context, projectID, taskID primitive.ObjectID) (*models.Task, error) {
	var t models.Task
	err := s.c.FindOne(ctx, bson.M{"_id": taskID, "project_id": projectID}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Update holds the replaceable task fields.
type Update struct {
	Title       string
	Description string
	Status      string
	AssignedTo  *primitive.ObjectID
	Attachments []models.Attachment
}

// Update replaces the task's mutable fields. Returns ErrNotFound when the
// task is absent from the project.
func (s *Store) Update(ctx context.Context, projectID, taskID primitive.ObjectID, upd Update) error {
	set := bson.M{
		"title":       upd.Title,
		"description": upd.Description,
		"status":      upd.Status,
		"assigned_to": upd.AssignedTo,
		"updated_at":  time.Now().UTC(),
	}
	if upd.Attachments != nil {
		set["attachments"] = upd.Attachments
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": taskID, "project_id": projectID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the task and its subtasks.
// Returns ErrNotFound when the task is absent from the project.
func (s *Store) Delete(ctx context.Context, projectID, taskID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": taskID, "project_id": projectID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	_, _ = s.subtasks.DeleteMany(ctx, bson.M{"task_id": taskID})
	return nil
}

// ListByProject returns the project's tasks joined with assignee details,
// newest first.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.TaskWithAssignee, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"project_id": projectID}}},
	}
	pipeline = append(pipeline, assigneeLookup...)
	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.M{"created_at": -1}}})

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	tasks := []models.TaskWithAssignee{}
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetDetail returns one task joined with its assignee and its subtasks,
// each subtask carrying its creator's public fields.
// Returns ErrNotFound when the task is absent from the project.
func (s *Store) GetDetail(ctx context.Context, projectID, taskID primitive.ObjectID) (*models.TaskDetail, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": taskID, "project_id": projectID}}},
	}
	pipeline = append(pipeline, assigneeLookup...)
	pipeline = append(pipeline, bson.D{{Key: "$lookup", Value: bson.M{
		"from":         "subtasks",
		"localField":   "_id",
		"foreignField": "task_id",
		"as":           "subtasks",
		"pipeline": []bson.M{
			{"$lookup": bson.M{
				"from":         "users",
				"localField":   "created_by",
				"foreignField": "_id",
				"as":           "creator",
				"pipeline": []bson.M{
					{"$project": bson.M{
						"_id":        1,
						"username":   1,
						"email":      1,
						"full_name":  1,
						"avatar_url": 1,
					}},
				},
			}},
			{"$unwind": bson.M{
				"path":                       "$creator",
				"preserveNullAndEmptyArrays": true,
			}},
			{"$sort": bson.M{"created_at": 1}},
		},
	}}})

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var details []models.TaskDetail
	if err := cur.All(ctx, &details); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, ErrNotFound
	}
	return &details[0], nil
}
