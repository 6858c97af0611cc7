package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adanyl0v/taskboard/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")
	ErrFingerprintMismatch  = errors.New("fingerprint mismatch")
)

var (
	// ErrInvalidTask is the parent of every task validation error.
	ErrInvalidTask       = errors.New("invalid task")
	ErrEmptyTaskTitle    = fmt.Errorf("%w: title must not be empty", ErrInvalidTask)
	ErrTaskTitleTooLong  = fmt.Errorf("%w: title is longer than %d characters", ErrInvalidTask, models.MaxTaskTitleLength)
	ErrInvalidTaskStatus = fmt.Errorf("%w: status must be one of new, inprogress, done", ErrInvalidTask)
	ErrEmptyTaskPatch    = fmt.Errorf("%w: nothing to update", ErrInvalidTask)

	ErrTaskNotFound        = errors.New("task not found")
	ErrTaskForbidden       = errors.New("task belongs to another user")
	ErrTaskVersionConflict = errors.New("task was modified concurrently")

	// ErrUnauthenticated is reported by clients when the server
	// rejects the session.
	ErrUnauthenticated = errors.New("unauthenticated")
)

type TaskService interface {
	// CreateTask validates the title and status and stores a new task
	// owned by params.OwnerID. An empty status defaults to models.StatusNew.
	//
	// It returns an error wrapping ErrInvalidTask if validation fails.
	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)

	// GetTask returns ErrTaskNotFound if the task doesn't exist or
	// ErrTaskForbidden if it belongs to someone else.
	GetTask(ctx context.Context, params GetTaskParams) (*models.Task, error)

	// ListTasks returns all tasks of the owner ordered by creation time.
	// An owner with no tasks gets an empty slice.
	ListTasks(ctx context.Context, ownerID string) ([]*models.Task, error)

	// UpdateTask merges the patch into the stored task and bumps its version.
	//
	// When the patch carries a version it must match the stored one,
	// otherwise ErrTaskVersionConflict is returned. Without a version
	// the last write wins.
	UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error)

	// DeleteTask returns ErrTaskNotFound if the task doesn't exist or
	// ErrTaskForbidden if it belongs to someone else.
	DeleteTask(ctx context.Context, params DeleteTaskParams) error
}

type AuthService interface {
	// Login authenticates the user by email and password.
	//
	// It deletes all sessions with the same user ID and creates
	// a new session and generates a new JWT token pair.
	//
	// It returns ErrUserNotFound if the user with the given
	// email doesn't exist or ErrUserPasswordMismatch if the
	// given password doesn't match the user's password.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Refresh rotates the refresh token of the session it belongs to.
	//
	// It returns ErrSessionNotFound if the session with the
	// given refresh token doesn't exist, ErrFingerprintMismatch if
	// it was issued to another client or ErrSessionExpired if the
	// session is expired.
	Refresh(ctx context.Context, params RefreshParams) (*LoginResult, error)

	// Register a user with the given email and password.
	//
	// It hashes the password, generates a unique ID and creates a
	// session with the given fingerprint and a fresh JWT token pair.
	//
	// It returns ErrUserAlreadyExists if the user
	// with the given email already exists.
	Register(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Logout invalidates all sessions with the given user ID.
	Logout(ctx context.Context, userID string) error

	// ParseJWTToken parses the given JWT token and returns the registered
	// claims or jwt.ErrTokenExpired if the token is expired.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)
}

type SessionService interface {
	GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error)
}

type CreateTaskParams struct {
	OwnerID string
	Title   string
	Status  models.Status
}

type GetTaskParams struct {
	ID      string
	OwnerID string
}

type UpdateTaskParams struct {
	ID      string
	OwnerID string
	Patch   models.TaskPatch
}

type DeleteTaskParams struct {
	ID      string
	OwnerID string
}

type LoginParams struct {
	Email       string
	Password    string
	Fingerprint string
}

type LoginResult struct {
	UserID                string
	SessionID             string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type RefreshParams struct {
	RefreshToken string
	Fingerprint  string
}
