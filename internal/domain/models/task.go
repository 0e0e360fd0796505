package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task statuses.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

// ValidTaskStatus reports whether s is one of the closed task statuses.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// Attachment is file metadata carried on a task. File bytes live outside
// this system; only the reference is stored.
type Attachment struct {
	ID       string `bson:"id" json:"id"` // uuid assigned at attach time
	URL      string `bson:"url" json:"url"`
	MimeType string `bson:"mime_type,omitempty" json:"mimeType,omitempty"`
	Size     int64  `bson:"size,omitempty" json:"size,omitempty"`
}

// Task is a unit of work inside a project.
type Task struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	ProjectID   primitive.ObjectID  `bson:"project_id" json:"projectId"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Status      string              `bson:"status" json:"status"`
	AssignedTo  *primitive.ObjectID `bson:"assigned_to,omitempty" json:"assignedTo,omitempty"`
	AssignedBy  primitive.ObjectID  `bson:"assigned_by" json:"assignedBy"`
	Attachments []Attachment        `bson:"attachments,omitempty" json:"attachments,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// TaskWithAssignee is a task joined with its assignee's public fields.
type TaskWithAssignee struct {
	Task       `bson:",inline"`
	Assignee   *MemberUser `bson:"assignee,omitempty" json:"assignee,omitempty"`
}

// TaskDetail is a task joined with assignee and subtasks (each with its
// creator), as returned by the task-detail aggregation.
type TaskDetail struct {
	Task     `bson:",inline"`
	Assignee *MemberUser          `bson:"assignee,omitempty" json:"assignee,omitempty"`
	SubTasks []SubTaskWithCreator `bson:"subtasks" json:"subtasks"`
}
