package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adanyl0v/taskboard/internal/models"
)

var _ Store = (*FileStore)(nil)

// FileStore is a MemoryStore mirrored to a single YAML document.
// Every successful mutation rewrites the document atomically.
type FileStore struct {
	mu   sync.Mutex
	path string
	mem  *MemoryStore
}

type fileSnapshot struct {
	Tasks    []taskRecord    `yaml:"tasks"`
	Users    []userRecord    `yaml:"users,omitempty"`
	Sessions []sessionRecord `yaml:"sessions,omitempty"`
}

type taskRecord struct {
	ID        string    `yaml:"id"`
	OwnerID   string    `yaml:"owner_id"`
	Title     string    `yaml:"title"`
	Status    string    `yaml:"status"`
	Version   int64     `yaml:"version"`
	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

type userRecord struct {
	ID        string    `yaml:"id"`
	Email     string    `yaml:"email"`
	Password  string    `yaml:"password"`
	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

type sessionRecord struct {
	ID           string    `yaml:"id"`
	UserID       string    `yaml:"user_id"`
	Fingerprint  string    `yaml:"fingerprint"`
	RefreshToken string    `yaml:"refresh_token"`
	ExpiresAt    time.Time `yaml:"expires_at"`
	CreatedAt    time.Time `yaml:"created_at"`
	UpdatedAt    time.Time `yaml:"updated_at"`
}

func NewFileStore(path string) (*FileStore, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	s := &FileStore{path: abs}
	if err = s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) load() error {
	mem := NewMemoryStore()
	s.mem = mem

	content, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	var snapshot fileSnapshot
	if err = yaml.Unmarshal(content, &snapshot); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", s.path, err)
	}

	for _, r := range snapshot.Tasks {
		if !models.Status(r.Status).Valid() {
			return fmt.Errorf("task %s in %s has invalid status %q", r.ID, s.path, r.Status)
		}
		mem.tasks[r.ID] = &models.Task{
			ID:        r.ID,
			OwnerID:   r.OwnerID,
			Title:     r.Title,
			Status:    models.Status(r.Status),
			Version:   r.Version,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		}
		mem.order = append(mem.order, r.ID)
	}
	for _, r := range snapshot.Users {
		mem.users[r.ID] = &models.User{
			ID:        r.ID,
			Email:     r.Email,
			Password:  r.Password,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		}
	}
	for _, r := range snapshot.Sessions {
		mem.sessions[r.ID] = &models.Session{
			ID:           r.ID,
			UserID:       r.UserID,
			Fingerprint:  r.Fingerprint,
			RefreshToken: r.RefreshToken,
			ExpiresAt:    r.ExpiresAt,
			CreatedAt:    r.CreatedAt,
			UpdatedAt:    r.UpdatedAt,
		}
	}
	return nil
}

func (s *FileStore) snapshot() fileSnapshot {
	s.mem.mu.RLock()
	defer s.mem.mu.RUnlock()

	var snapshot fileSnapshot
	for _, id := range s.mem.order {
		t := s.mem.tasks[id]
		snapshot.Tasks = append(snapshot.Tasks, taskRecord{
			ID:        t.ID,
			OwnerID:   t.OwnerID,
			Title:     t.Title,
			Status:    string(t.Status),
			Version:   t.Version,
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
		})
	}
	for _, u := range s.mem.users {
		snapshot.Users = append(snapshot.Users, userRecord{
			ID:        u.ID,
			Email:     u.Email,
			Password:  u.Password,
			CreatedAt: u.CreatedAt,
			UpdatedAt: u.UpdatedAt,
		})
	}
	for _, session := range s.mem.sessions {
		snapshot.Sessions = append(snapshot.Sessions, sessionRecord{
			ID:           session.ID,
			UserID:       session.UserID,
			Fingerprint:  session.Fingerprint,
			RefreshToken: session.RefreshToken,
			ExpiresAt:    session.ExpiresAt,
			CreatedAt:    session.CreatedAt,
			UpdatedAt:    session.UpdatedAt,
		})
	}
	sort.Slice(snapshot.Users, func(i, j int) bool { return snapshot.Users[i].ID < snapshot.Users[j].ID })
	sort.Slice(snapshot.Sessions, func(i, j int) bool { return snapshot.Sessions[i].ID < snapshot.Sessions[j].ID })
	return snapshot
}

func (s *FileStore) save() error {
	content, err := yaml.Marshal(s.snapshot())
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	// Atomic write: temp file then rename.
	tmp := s.path + ".tmp"
	if err = os.WriteFile(tmp, content, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// mutate applies fn to the in-memory state and persists the result.
// On a failed write the previous document is reloaded.
func (s *FileStore) mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(); err != nil {
		return err
	}
	if err := s.save(); err != nil {
		if loadErr := s.load(); loadErr != nil {
			return errors.Join(err, loadErr)
		}
		return err
	}
	return nil
}

func (s *FileStore) CreateTask(ctx context.Context, task *models.Task) error {
	return s.mutate(func() error { return s.mem.CreateTask(ctx, task) })
}

func (s *FileStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mem.GetTask(ctx, id)
}

func (s *FileStore) ListTasks(ctx context.Context, ownerID string) ([]*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mem.ListTasks(ctx, ownerID)
}

func (s *FileStore) UpdateTask(ctx context.Context, task *models.Task, expectedVersion int64) error {
	return s.mutate(func() error { return s.mem.UpdateTask(ctx, task, expectedVersion) })
}

func (s *FileStore) DeleteTask(ctx context.Context, id string) error {
	return s.mutate(func() error { return s.mem.DeleteTask(ctx, id) })
}

func (s *FileStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.mutate(func() error { return s.mem.CreateUser(ctx, user) })
}

func (s *FileStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mem.GetUserByEmail(ctx, email)
}

func (s *FileStore) ReplaceSessions(ctx context.Context, session *models.Session) error {
	return s.mutate(func() error { return s.mem.ReplaceSessions(ctx, session) })
}

func (s *FileStore) GetSessionByID(ctx context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mem.GetSessionByID(ctx, id)
}

func (s *FileStore) GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mem.GetSessionByRefreshToken(ctx, refreshToken)
}

func (s *FileStore) UpdateSession(ctx context.Context, session *models.Session) error {
	return s.mutate(func() error { return s.mem.UpdateSession(ctx, session) })
}

func (s *FileStore) DeleteSessionsByUserID(ctx context.Context, userID string) (int64, error) {
	var affected int64
	err := s.mutate(func() error {
		var err error
		affected, err = s.mem.DeleteSessionsByUserID(ctx, userID)
		return err
	})
	return affected, err
}
