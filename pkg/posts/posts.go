// Package posts stores blog posts as markdown files with YAML front
// matter. The authorization core treats this package as an external
// collaborator: it only ever asks for ownership facts and never reaches
// into the files itself.
package posts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v2"
)

// ErrNotFound is returned when no post matches the given ID.
var ErrNotFound = errors.New("post not found")

// Post is one blog post. ID doubles as the file name (without extension).
type Post struct {
	ID          string
	Title       string
	Date        time.Time
	AuthorEmail string
	AuthorName  string
	Attachments []string
	Content     string
}

// frontMatter is the YAML header persisted above the markdown body.
type frontMatter struct {
	Title       string    `yaml:"title"`
	Date        time.Time `yaml:"date"`
	AuthorEmail string    `yaml:"authorEmail"`
	AuthorName  string    `yaml:"authorName"`
	Attachments []string  `yaml:"attachments,omitempty"`
}

const frontMatterDelim = "---"

// FileStore keeps one markdown file per post in a flat directory.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the posts directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create posts directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) pathFor(id string) string {
	return filepath.Join(s.dir, id+".md")
}

// GetByID loads a post, or ErrNotFound.
func (s *FileStore) GetByID(id string) (*Post, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read post %s: %w", id, err)
	}
	return parse(id, data)
}

// AuthorEmail returns the recorded author for id, the ownership fact the
// authorization gate needs.
func (s *FileStore) AuthorEmail(id string) (string, error) {
	post, err := s.GetByID(id)
	if err != nil {
		return "", err
	}
	return post.AuthorEmail, nil
}

// Save writes the post, creating or replacing its file.
func (s *FileStore) Save(post *Post) error {
	if post == nil || !validID(post.ID) {
		return fmt.Errorf("invalid post id")
	}

	fm := frontMatter{
		Title:       post.Title,
		Date:        post.Date,
		AuthorEmail: post.AuthorEmail,
		AuthorName:  post.AuthorName,
		Attachments: post.Attachments,
	}
	header, err := yaml.Marshal(&fm)
	if err != nil {
		return fmt.Errorf("failed to encode post front matter: %w", err)
	}

	var b strings.Builder
	b.WriteString(frontMatterDelim + "\n")
	b.Write(header)
	b.WriteString(frontMatterDelim + "\n")
	b.WriteString(post.Content)

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.pathFor(post.ID) + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write post %s: %w", post.ID, err)
	}
	if err := os.Rename(tmp, s.pathFor(post.ID)); err != nil {
		return fmt.Errorf("failed to replace post %s: %w", post.ID, err)
	}
	return nil
}

// Delete removes the post file, or returns ErrNotFound.
func (s *FileStore) Delete(id string) error {
	if !validID(id) {
		return ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.pathFor(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete post %s: %w", id, err)
	}
	return nil
}

// List returns all posts, newest first.
func (s *FileStore) List() ([]*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := filepath.Glob(filepath.Join(s.dir, "*.md"))
	if err != nil {
		return nil, err
	}

	var out []*Post
	for _, file := range files {
		id := strings.TrimSuffix(filepath.Base(file), ".md")
		data, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		post, err := parse(id, data)
		if err != nil {
			continue
		}
		out = append(out, post)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// validID rejects IDs that would escape the posts directory.
func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}

func parse(id string, data []byte) (*Post, error) {
	text := string(data)

	rest, ok := strings.CutPrefix(text, frontMatterDelim+"\n")
	if !ok {
		return nil, fmt.Errorf("post %s: missing front matter", id)
	}
	header, body, ok := strings.Cut(rest, "\n"+frontMatterDelim+"\n")
	if !ok {
		return nil, fmt.Errorf("post %s: unterminated front matter", id)
	}

	var fm frontMatter
	if err := yaml.Unmarshal([]byte(header+"\n"), &fm); err != nil {
		return nil, fmt.Errorf("post %s: invalid front matter: %w", id, err)
	}

	return &Post{
		ID:          id,
		Title:       fm.Title,
		Date:        fm.Date,
		AuthorEmail: fm.AuthorEmail,
		AuthorName:  fm.AuthorName,
		Attachments: fm.Attachments,
		Content:     body,
	}, nil
}
