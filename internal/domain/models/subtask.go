package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubTask is a checklist entry under a task.
type SubTask struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	TaskID      primitive.ObjectID `bson:"task_id" json:"taskId"`
	Title       string             `bson:"title" json:"title"`
	IsCompleted bool               `bson:"is_completed" json:"isCompleted"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"createdBy"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// SubTaskWithCreator is a subtask joined with its creator's public fields.
type SubTaskWithCreator struct {
	SubTask `bson:",inline"`
	Creator *MemberUser `bson:"creator,omitempty" json:"creator,omitempty"`
}
