package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/adanyl0v/taskboard/internal/models"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps everything in process memory. Tasks are kept in
// insertion order which matches creation order.
type MemoryStore struct {
	mu       sync.RWMutex
	tasks    map[string]*models.Task
	order    []string
	users    map[string]*models.User
	sessions map[string]*models.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:    make(map[string]*models.Task),
		users:    make(map[string]*models.User),
		sessions: make(map[string]*models.Session),
	}
}

func (s *MemoryStore) CreateTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[task.ID]; ok {
		return fmt.Errorf("task %s: %w", task.ID, ErrAlreadyExists)
	}
	t := *task
	s.tasks[t.ID] = &t
	s.order = append(s.order, t.ID)
	return nil
}

func (s *MemoryStore) GetTask(_ context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	out := *t
	return &out, nil
}

func (s *MemoryStore) ListTasks(_ context.Context, ownerID string) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]*models.Task, 0, len(s.order))
	for _, id := range s.order {
		t := s.tasks[id]
		if t.OwnerID != ownerID {
			continue
		}
		out := *t
		tasks = append(tasks, &out)
	}
	return tasks, nil
}

func (s *MemoryStore) UpdateTask(_ context.Context, task *models.Task, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[task.ID]
	if !ok {
		return fmt.Errorf("task %s: %w", task.ID, ErrNotFound)
	}
	if t.Version != expectedVersion {
		return fmt.Errorf("task %s: %w", task.ID, ErrVersionConflict)
	}
	updated := *task
	s.tasks[task.ID] = &updated
	return nil
}

func (s *MemoryStore) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	delete(s.tasks, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Email, ErrAlreadyExists)
		}
	}
	u := *user
	s.users[u.ID] = &u
	return nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
}

func (s *MemoryStore) ReplaceSessions(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteSessionsLocked(session.UserID)
	out := *session
	s.sessions[out.ID] = &out
	return nil
}

func (s *MemoryStore) GetSessionByID(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	out := *session
	return &out, nil
}

func (s *MemoryStore) GetSessionByRefreshToken(_ context.Context, refreshToken string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, session := range s.sessions {
		if session.RefreshToken == refreshToken {
			out := *session
			return &out, nil
		}
	}
	return nil, fmt.Errorf("session: %w", ErrNotFound)
}

func (s *MemoryStore) UpdateSession(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; !ok {
		return fmt.Errorf("session %s: %w", session.ID, ErrNotFound)
	}
	out := *session
	s.sessions[out.ID] = &out
	return nil
}

func (s *MemoryStore) DeleteSessionsByUserID(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteSessionsLocked(userID), nil
}

func (s *MemoryStore) deleteSessionsLocked(userID string) int64 {
	var affected int64
	for id, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, id)
			affected++
		}
	}
	return affected
}
