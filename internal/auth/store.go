// Package auth holds the session credentials obtained at login and derives
// the user identity from the session token. The token is the only source of
// identity for authenticated calls.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Credentials is the token pair persisted after OTP verification.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Store is a file-backed credential store. It is written once at login and
// read-only for the rest of the session, so concurrent reads are safe.
type Store struct {
	path string

	mu     sync.RWMutex
	cached *Credentials
}

// NewStore creates a store over the given file path. The file need not exist
// yet; a missing file means logged out.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save persists the credentials and refreshes the in-memory copy.
func (s *Store) Save(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("auth: create credentials dir: %w", err)
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("auth: marshal credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("auth: write credentials: %w", err)
	}
	s.cached = &creds
	return nil
}

// Clear removes the stored credentials (logout).
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = nil
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("auth: remove credentials: %w", err)
	}
	return nil
}

// AccessToken returns the stored bearer token, or "" when logged out.
func (s *Store) AccessToken() (string, error) {
	creds, err := s.load()
	if err != nil {
		return "", err
	}
	return creds.AccessToken, nil
}

// UserID returns the user identity carried in the stored token's claims.
func (s *Store) UserID() (int64, error) {
	token, err := s.AccessToken()
	if err != nil {
		return 0, err
	}
	if token == "" {
		return 0, errors.New("auth: not logged in")
	}
	return UserIDFromToken(token)
}

func (s *Store) load() (Credentials, error) {
	s.mu.RLock()
	if s.cached != nil {
		creds := *s.cached
		s.mu.RUnlock()
		return creds, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		return *s.cached, nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, nil
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("auth: read credentials: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("auth: decode credentials: %w", err)
	}
	s.cached = &creds
	return creds, nil
}
