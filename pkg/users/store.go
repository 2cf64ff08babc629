package users

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore persists user records in a single JSON file. All mutations go
// through a read-modify-write under the store mutex, and the file is
// replaced with a rename so a crash never leaves a partial record behind.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a file store rooted at dir, creating the directory
// and an empty users file if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create user store directory: %w", err)
	}

	s := &FileStore{path: filepath.Join(dir, "users.json")}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		if err := s.writeAll(nil); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindByEmail returns the record for email, or ErrNotFound.
func (s *FileStore) FindByEmail(email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return nil, err
	}
	for _, u := range all {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

// Upsert inserts or replaces the record keyed by user.Email.
func (s *FileStore) Upsert(user *User) error {
	if user == nil || strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("user email is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		// A corrupt or unreadable file must not silently drop existing
		// records on write, so the error propagates.
		return err
	}

	replaced := false
	for i, u := range all {
		if u.Email == user.Email {
			all[i] = user
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, user)
	}

	return s.writeAll(all)
}

// Delete removes the record for email and reports whether it existed.
func (s *FileStore) Delete(email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return false, err
	}

	kept := all[:0]
	found := false
	for _, u := range all {
		if u.Email == email {
			found = true
			continue
		}
		kept = append(kept, u)
	}
	if !found {
		return false, nil
	}

	if err := s.writeAll(kept); err != nil {
		return false, err
	}
	return true, nil
}

// ListAll returns every record.
func (s *FileStore) ListAll() ([]*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll()
}

func (s *FileStore) readAll() ([]*User, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read user store: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var all []*User
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("failed to decode user store: %w", err)
	}
	return all, nil
}

// writeAll replaces the whole file via a temp file and rename.
func (s *FileStore) writeAll(all []*User) error {
	if all == nil {
		all = []*User{}
	}

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode user store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write user store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace user store: %w", err)
	}
	return nil
}
