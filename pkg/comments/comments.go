// Package comments stores per-post comment threads as JSON files. Like
// pkg/posts it is a collaborator of the authorization core: the gate only
// consumes the author emails recorded here.
package comments

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no comment matches the given ID.
var ErrNotFound = errors.New("comment not found")

// Comment is one comment on a post.
type Comment struct {
	ID          string    `json:"id"`
	PostID      string    `json:"postId"`
	Content     string    `json:"content"`
	Author      string    `json:"author"`
	AuthorEmail string    `json:"authorEmail"`
	AuthorImage *string   `json:"authorImage"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FileStore keeps one JSON file of comments per post.
type FileStore struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewFileStore creates the comments directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create comments directory: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

func (s *FileStore) pathFor(postID string) string {
	return filepath.Join(s.dir, postID+".json")
}

// ListByPost returns all comments on a post, oldest first.
func (s *FileStore) ListByPost(postID string) ([]*Comment, error) {
	if !validID(postID) {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll(postID)
}

// GetByID returns one comment, or ErrNotFound.
func (s *FileStore) GetByID(postID, commentID string) (*Comment, error) {
	all, err := s.ListByPost(postID)
	if err != nil {
		return nil, err
	}
	for _, c := range all {
		if c.ID == commentID {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

// Create appends a new comment and returns it with ID and timestamp set.
func (s *FileStore) Create(postID, content, author, authorEmail string, authorImage *string) (*Comment, error) {
	if !validID(postID) {
		return nil, fmt.Errorf("invalid post id")
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("comment content is required")
	}

	comment := &Comment{
		ID:          "comment_" + uuid.NewString(),
		PostID:      postID,
		Content:     content,
		Author:      author,
		AuthorEmail: authorEmail,
		AuthorImage: authorImage,
		CreatedAt:   s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll(postID)
	if err != nil {
		return nil, err
	}
	all = append(all, comment)

	if err := s.writeAll(postID, all); err != nil {
		return nil, err
	}
	return comment, nil
}

// Delete removes one comment, or returns ErrNotFound.
func (s *FileStore) Delete(postID, commentID string) error {
	if !validID(postID) {
		return ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll(postID)
	if err != nil {
		return err
	}

	kept := all[:0]
	found := false
	for _, c := range all {
		if c.ID == commentID {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return ErrNotFound
	}
	return s.writeAll(postID, kept)
}

func (s *FileStore) readAll(postID string) ([]*Comment, error) {
	data, err := os.ReadFile(s.pathFor(postID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read comments for %s: %w", postID, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var all []*Comment
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("failed to decode comments for %s: %w", postID, err)
	}
	return all, nil
}

func (s *FileStore) writeAll(postID string, all []*Comment) error {
	if all == nil {
		all = []*Comment{}
	}
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode comments for %s: %w", postID, err)
	}

	path := s.pathFor(postID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write comments for %s: %w", postID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace comments for %s: %w", postID, err)
	}
	return nil
}

func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}
