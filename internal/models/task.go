package models

import "time"

type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "inprogress"
	StatusDone       Status = "done"
)

// Statuses lists every bucket in board order.
var Statuses = []Status{StatusNew, StatusInProgress, StatusDone}

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusDone:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Title returns the bucket heading shown on the board.
func (s Status) Title() string {
	switch s {
	case StatusNew:
		return "New Work"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	default:
		return ""
	}
}

const MaxTaskTitleLength = 255

type Task struct {
	ID        string
	OwnerID   string
	Title     string
	Status    Status
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaskPatch is a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title   *string
	Status  *Status
	Version *int64
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Status == nil
}
