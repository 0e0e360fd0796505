package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProjectMember links a user to a project with a role. The (project, user)
// pair is unique; the project creator gets an administrator row at creation.
type ProjectMember struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	ProjectID primitive.ObjectID `bson:"project_id" json:"projectId"`
	UserID    primitive.ObjectID `bson:"user_id" json:"userId"`
	Role      string             `bson:"role" json:"role"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// MemberWithUser is a membership row joined with the public fields of the
// member's user record, as returned by the member-list aggregation.
type MemberWithUser struct {
	ProjectID primitive.ObjectID `bson:"project_id" json:"projectId"`
	Role      string             `bson:"role" json:"role"`
	User      MemberUser         `bson:"user" json:"user"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// MemberUser is the projection of a user embedded in member listings.
type MemberUser struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	Username  string             `bson:"username" json:"username"`
	Email     string             `bson:"email" json:"email"`
	FullName  string             `bson:"full_name,omitempty" json:"fullName,omitempty"`
	AvatarURL string             `bson:"avatar_url,omitempty" json:"avatarUrl,omitempty"`
}

// ProjectWithRole is a project joined with the caller's role and the member
// count, as returned by the project-list aggregation.
type ProjectWithRole struct {
	Project ProjectSummary `bson:"project" json:"project"`
	Role    string         `bson:"role" json:"role"`
}

// ProjectSummary is the projection of a project embedded in project listings.
type ProjectSummary struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Members     int                `bson:"members" json:"members"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"createdBy"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
}
