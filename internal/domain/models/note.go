package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProjectNote is free-form content attached to a project.
type ProjectNote struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ProjectID primitive.ObjectID `bson:"project_id" json:"projectId"`
	Content   string             `bson:"content" json:"content"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"createdBy"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// NoteWithCreator is a note joined with its creator's public fields.
type NoteWithCreator struct {
	ProjectNote `bson:",inline"`
	Creator     *MemberUser `bson:"creator,omitempty" json:"creator,omitempty"`
}
