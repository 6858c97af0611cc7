package storage

import (
	"context"
	"errors"

	"github.com/adanyl0v/taskboard/internal/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrVersionConflict = errors.New("version conflict")
)

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type TaskRepository interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)

	// ListTasks returns the owner's tasks ordered by creation time and then id.
	ListTasks(ctx context.Context, ownerID string) ([]*models.Task, error)

	// UpdateTask replaces the stored task when its version equals
	// expectedVersion and returns ErrVersionConflict otherwise.
	UpdateTask(ctx context.Context, task *models.Task, expectedVersion int64) error

	DeleteTask(ctx context.Context, id string) error
}

type UserRepository interface {
	// CreateUser returns ErrAlreadyExists if the email is taken.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type SessionRepository interface {
	// ReplaceSessions deletes every session of session.UserID
	// and stores the given one in a single step.
	ReplaceSessions(ctx context.Context, session *models.Session) error
	GetSessionByID(ctx context.Context, id string) (*models.Session, error)
	GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error)
	UpdateSession(ctx context.Context, session *models.Session) error
	DeleteSessionsByUserID(ctx context.Context, userID string) (int64, error)
}

// Store bundles the repositories served by one backend.
type Store interface {
	TaskRepository
	UserRepository
	SessionRepository
}
