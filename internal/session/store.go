// Package session keeps the board client's login between runs.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/adanyl0v/taskboard/internal/client"
)

const (
	storeDirName  = "taskboard"
	storeFileName = "session.yaml"
)

// DefaultStorePath is session.yaml inside the user's config directory.
func DefaultStorePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config dir: %w", err)
	}
	return filepath.Join(dir, storeDirName, storeFileName), nil
}

// Store is the YAML file holding the current session tokens. It is the
// client.TokenSource of the HTTP client.
type Store struct {
	mu     sync.RWMutex
	path   string
	tokens *client.Tokens
}

var _ client.TokenSource = (*Store)(nil)

// OpenStore reads the session file at path. A missing file is an empty
// store.
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var tokens client.Tokens
	if err = yaml.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("failed to decode session file %s: %w", path, err)
	}
	if tokens.AccessToken != "" || tokens.RefreshToken != "" {
		s.tokens = &tokens
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tokens == nil {
		return ""
	}
	return s.tokens.AccessToken
}

func (s *Store) Tokens() (client.Tokens, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tokens == nil {
		return client.Tokens{}, false
	}
	return *s.tokens, true
}

// Save replaces the stored session. The file is written with 0600
// permissions through a temporary file and a rename.
func (s *Store) Save(tokens *client.Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err = os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err = os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	saved := *tokens
	s.tokens = &saved
	return nil
}

// Clear forgets the session and removes its file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = nil
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
