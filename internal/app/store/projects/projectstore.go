package projectstore

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
	c        *mongo.Collection
	members  *mongo.Collection
	tasks    *mongo.Collection
	subtasks *mongo.Collection
	notes    *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:        db.Collection("projects"),
		members:  db.Collection("project_members"),
		tasks:    db.Collection("tasks"),
		subtasks: db.Collection("subtasks"),
		notes:    db.Collection("project_notes"),
	}
}

// ErrNotFound is returned when a project does not exist.
var ErrNotFound = errors.New("project not found")

// Create inserts a project and the creator's administrator membership row.
func (s *Store) Create(ctx context.Context, name, description string, createdBy primitive.ObjectID) (models.Project, error) {
	now := time.Now().UTC()
	p := models.Project{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Description: description,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Project{}, err
	}

	member := models.ProjectMember{
		ID:        primitive.NewObjectID(),
		ProjectID: p.ID,
		UserID:    createdBy,
		Role:      "administrator",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.members.InsertOne(ctx, member); err != nil {
		// Roll the project back so no project exists without an administrator.
		_, _ = s.c.DeleteOne(ctx, bson.M{"_id": p.ID})
		return models.Project{}, err
	}
	return p, nil
}

// GetByID loads a project. Returns ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var p models.Project
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Update replaces name and description. Returns ErrNotFound when absent.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, name, description string) (*models.Project, error) {
	var p models.Project
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"name":        name,
			"description": description,
			"updated_at":  time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes the project and cascades to its tasks, subtasks, notes,
// and membership rows. Returns ErrNotFound when the project is absent.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	// Subtasks hang off tasks, so collect task ids first.
	taskIDs, err := s.tasks.Distinct(ctx, "_id", bson.M{"project_id": id})
	if err == nil && len(taskIDs) > 0 {
		_, _ = s.subtasks.DeleteMany(ctx, bson.M{"task_id": bson.M{"$in": taskIDs}})
	}
	_, _ = s.tasks.DeleteMany(ctx, bson.M{"project_id": id})
	_, _ = s.notes.DeleteMany(ctx, bson.M{"project_id": id})
	_, _ = s.members.DeleteMany(ctx, bson.M{"project_id": id})
	return nil
}
