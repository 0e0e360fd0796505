package notestore

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
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("project_notes")}
}

// ErrNotFound is returned when a note does not exist in the given project.
var ErrNotFound = errors.New("note not found")

// creatorLookup joins the note creator's public user fields.
var creatorLookup = []bson.D{
	{{Key: "$lookup", Value: bson.M{
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
	}}},
	{{Key: "$unwind", Value: bson.M{
		"path":                       "$creator",
		"preserveNullAndEmptyArrays": true,
	}}},
}

// Create inserts a note.
func (s *Store) Create(ctx context.Context, projectID, createdBy primitive.ObjectID, content string) (models.ProjectNote, error) {
	now := time.Now().UTC()
	n := models.ProjectNote{
		ID:        primitive.NewObjectID(),
		ProjectID: projectID,
		Content:   content,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.ProjectNote{}, err
	}
	return n, nil
}

// GetByID loads a note scoped to its project, joined with creator details.
func (s *Store) GetByID(ctx context.Context, projectID, noteID primitive.ObjectID) (*models.NoteWithCreator, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": noteID, "project_id": projectID}}},
	}
	pipeline = append(pipeline, creatorLookup...)

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var notes []models.NoteWithCreator
	if err := cur.All(ctx, &notes); err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, ErrNotFound
	}
	return &notes[0], nil
}

// Update replaces the note content. Returns ErrNotFound when the note is
// absent from the project.
func (s *Store) Update(ctx context.Context, projectID, noteID primitive.ObjectID, content string) (*models.ProjectNote, error) {
	var n models.ProjectNote
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": noteID, "project_id": projectID},
		bson.M{"$set": bson.M{"content": content, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&n)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Delete removes the note. Returns ErrNotFound when absent.
func (s *Store) Delete(ctx context.Context, projectID, noteID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": noteID, "project_id": projectID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByProject returns the project's notes joined with creator details,
// newest first.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.NoteWithCreator, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"project_id": projectID}}},
	}
	pipeline = append(pipeline, creatorLookup...)
	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.M{"created_at": -1}}})

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	notes := []models.NoteWithCreator{}
	if err := cur.All(ctx, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}
