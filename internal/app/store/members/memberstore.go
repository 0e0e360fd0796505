package memberstore

import (
	"context"
	"errors"
	"time"

	"github.com/taskcamp/taskcamp/internal/app/system/authz"
	"github.com/taskcamp/taskcamp/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c        *mongo.Collection
	projects *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:        db.Collection("project_members"),
		projects: db.Collection("projects"),
	}
}

var (
	// ErrNotFound is returned when the (project, user) membership row is absent.
	ErrNotFound = errors.New("membership not found")

	// ErrDuplicateMembership is returned when the user already has a row in
	// the project.
	ErrDuplicateMembership = errors.New("user is already a member of this project")
)

// Role implements authz.Resolver: it returns the caller's role in the
// project, or authz.ErrNoMembership.
func (s *Store) Role(ctx context.Context, projectID, userID primitive.ObjectID) (authz.Role, error) {
	m, err := s.Get(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", authz.ErrNoMembership
		}
		return "", err
	}
	role, ok := authz.ParseRole(m.Role)
	if !ok {
		// A stored role outside the closed set grants nothing.
		return "", authz.ErrNoMembership
	}
	return role, nil
}

// Get loads the membership row for (projectID, userID).
func (s *Store) Get(ctx context.Context, projectID, userID primitive.ObjectID) (*models.ProjectMember, error) {
	var m models.ProjectMember
	err := s.c.FindOne(ctx, bson.M{"project_id": projectID, "user_id": userID}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Add creates a membership row with the given role.
func (s *Store) Add(ctx context.Context, projectID, userID primitive.ObjectID, role authz.Role) (models.ProjectMember, error) {
	now := time.Now().UTC()
	m := models.ProjectMember{
		ID:        primitive.NewObjectID(),
		ProjectID: projectID,
		UserID:    userID,
		Role:      role.String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.ProjectMember{}, ErrDuplicateMembership
		}
		return models.ProjectMember{}, err
	}
	return m, nil
}

// UpdateRole changes an existing member's role.
// Returns ErrNotFound when the membership row is absent.
func (s *Store) UpdateRole(ctx context.Context, projectID, userID primitive.ObjectID, role authz.Role) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"project_id": projectID, "user_id": userID},
		bson.M{"$set": bson.M{"role": role.String(), "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Remove deletes the membership row for (projectID, userID).
// Returns ErrNotFound when it is absent.
func (s *Store) Remove(ctx context.Context, projectID, userID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"project_id": projectID, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByProject removes every membership row of the project.
// Used by project deletion cascade.
func (s *Store) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"project_id": projectID})
	return err
}

// ListByProject returns the project's members joined with their public user
// fields, ordered by join time.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.MemberWithUser, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"project_id": projectID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "user",
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
		{{Key: "$unwind", Value: "$user"}},
		{{Key: "$sort", Value: bson.M{"created_at": 1}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	members := []models.MemberWithUser{}
	if err := cur.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// ListProjectsFor returns every project the user belongs to, joined with the
// project document, its member count, and the user's role in it.
func (s *Store) ListProjectsFor(ctx context.Context, userID primitive.ObjectID) ([]models.ProjectWithRole, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "projects",
			"localField":   "project_id",
			"foreignField": "_id",
			"as":           "project",
		}}},
		{{Key: "$unwind", Value: "$project"}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "project_members",
			"localField":   "project_id",
			"foreignField": "project_id",
			"as":           "all_members",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"project.members": bson.M{"$size": "$all_members"},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":     0,
			"project": 1,
			"role":    1,
		}}},
		{{Key: "$sort", Value: bson.M{"project.created_at": -1}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	projects := []models.ProjectWithRole{}
	if err := cur.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}
