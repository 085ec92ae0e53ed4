package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps one JSON document per user in a directory.
//
// Documents may carry fields besides the preference lists (for example
// credentials written by an account service); those fields are preserved on
// every write. Writes go to a temporary file that is renamed into place, and
// a store-wide mutex serialises writers within the process.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("preferences: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("preferences: create dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *FileStore) Dir() string { return s.dir }

// path maps a validated id to its document file.
func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// readDoc loads the raw document for id. A missing file yields ErrNotFound.
func (s *FileStore) readDoc(id string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("preferences: read %s: %w", id, err)
	}
	doc := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("preferences: decode %s: %w", id, err)
	}
	return doc, nil
}

func decodePreferences(doc map[string]json.RawMessage) (Preferences, error) {
	var p Preferences
	for key, dst := range map[string]*[]string{
		"likes":     &p.Likes,
		"dislikes":  &p.Dislikes,
		"allergens": &p.Allergens,
	} {
		raw, ok := doc[key]
		if !ok || string(raw) == "null" {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return Preferences{}, fmt.Errorf("preferences: field %s: %w", key, err)
		}
	}
	return p.withEmptySlices(), nil
}

// writeDoc merges p into doc, stamps userid and updated_at, and replaces the
// file atomically.
func (s *FileStore) writeDoc(id string, doc map[string]json.RawMessage, p Preferences) error {
	p = p.withEmptySlices()
	for key, v := range map[string][]string{
		"likes":     p.Likes,
		"dislikes":  p.Dislikes,
		"allergens": p.Allergens,
	} {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("preferences: encode %s: %w", key, err)
		}
		doc[key] = raw
	}
	idRaw, _ := json.Marshal(id)
	doc["userid"] = idRaw
	ts, _ := json.Marshal(time.Now().UTC().Format(time.RFC3339))
	doc["updated_at"] = ts

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("preferences: encode %s: %w", id, err)
	}

	tmp, err := os.CreateTemp(s.dir, id+".*.tmp")
	if err != nil {
		return fmt.Errorf("preferences: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("preferences: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("preferences: close temp: %w", err)
	}
	if err := os.Rename(tmpPath, s.path(id)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("preferences: rename: %w", err)
	}
	return nil
}

// Get reads the user's document. Fields other than the preference lists are
// ignored.
func (s *FileStore) Get(ctx context.Context, id string) (Preferences, error) {
	if err := ctx.Err(); err != nil {
		return Preferences{}, err
	}
	if err := ValidateUserID(id); err != nil {
		return Preferences{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readDoc(id)
	if err != nil {
		return Preferences{}, err
	}
	return decodePreferences(doc)
}

// Put creates or replaces the user's preference lists, keeping any other
// fields already in the document.
func (s *FileStore) Put(ctx context.Context, id string, p Preferences) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateUserID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readDoc(id)
	if errors.Is(err, ErrNotFound) {
		doc = make(map[string]json.RawMessage)
	} else if err != nil {
		return err
	}
	return s.writeDoc(id, doc, p)
}

// Update applies fn to an existing user's preferences under the store lock.
// If fn fails the document is left untouched.
func (s *FileStore) Update(ctx context.Context, id string, fn func(*Preferences) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateUserID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readDoc(id)
	if err != nil {
		return err
	}
	p, err := decodePreferences(doc)
	if err != nil {
		return err
	}
	if err := fn(&p); err != nil {
		return err
	}
	return s.writeDoc(id, doc, p)
}

// Create writes an empty document under a fresh UUID.
func (s *FileStore) Create(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		id := newUserID()
		if _, err := os.Stat(s.path(id)); err == nil {
			continue
		}
		if err := s.writeDoc(id, make(map[string]json.RawMessage), Preferences{}); err != nil {
			return "", err
		}
		return id, nil
	}
}

// Delete removes the user's document. A missing document is not an error.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateUserID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("preferences: delete %s: %w", id, err)
	}
	return nil
}
