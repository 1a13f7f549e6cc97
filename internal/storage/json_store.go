package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/quantrail/stratforge/internal/models"
)

// JSONStore keeps drafts in memory and writes them through to a JSON file
// on every mutation. The file lets drafts survive a restart; it is an
// operational convenience, not a wire format.
type JSONStore struct {
	mu      sync.RWMutex
	path    string
	backups bool
	closed  bool
	data    *storeData
}

type storeData struct {
	Drafts      map[string]models.Draft `json:"drafts"`
	LastUpdated time.Time               `json:"last_updated"`
}

// NewJSONStore opens the store at path, loading any existing file. A file
// that fails to parse is moved aside to path.corrupt and the store starts
// empty rather than refusing to boot.
func NewJSONStore(path string, backups bool) (*JSONStore, error) {
	s := &JSONStore{
		path:    path,
		backups: backups,
		data: &storeData{
			Drafts: make(map[string]models.Draft),
		},
	}

	if _, err := os.Stat(path); err == nil {
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("loading draft store: %w", err)
		}
	}

	return s, nil
}

func (s *JSONStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var loaded storeData
	if err := json.Unmarshal(data, &loaded); err != nil {
		// Recover by quarantining the unreadable file.
		if renameErr := os.Rename(s.path, s.path+".corrupt"); renameErr != nil {
			return fmt.Errorf("parse failed (%v) and quarantine failed: %w", err, renameErr)
		}
		s.data = &storeData{Drafts: make(map[string]models.Draft)}
		return nil
	}

	if loaded.Drafts == nil {
		loaded.Drafts = make(map[string]models.Draft)
	}
	s.data = &loaded
	return nil
}

// save persists the current contents. Callers must hold the write lock.
func (s *JSONStore) save() error {
	s.data.LastUpdated = time.Now()

	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	// Write to temp file first
	tmpFile := s.path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return err
	}

	if s.backups {
		if _, err := os.Stat(s.path); err == nil {
			if err := os.Rename(s.path, s.path+".bak"); err != nil {
				return fmt.Errorf("rotating backup: %w", err)
			}
		}
	}

	// Atomic rename
	return os.Rename(tmpFile, s.path)
}

// GetDrafts returns copies of all stored drafts ordered by creation time.
func (s *JSONStore) GetDrafts() []models.Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Draft, 0, len(s.data.Drafts))
	for _, d := range s.data.Drafts {
		out = append(out, d.Copy())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// GetDraftByID returns a copy of the draft with the given id.
func (s *JSONStore) GetDraftByID(id string) (models.Draft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.data.Drafts[id]
	if !ok {
		return models.Draft{}, false
	}
	return d.Copy(), true
}

// SaveDraft upserts the draft and writes the file through.
func (s *JSONStore) SaveDraft(draft models.Draft) error {
	if draft.ID == "" {
		return fmt.Errorf("draft id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	s.data.Drafts[draft.ID] = draft.Copy()
	return s.save()
}

// DeleteDraft removes the draft and writes the file through.
func (s *JSONStore) DeleteDraft(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, ok := s.data.Drafts[id]; !ok {
		return ErrDraftNotFound
	}

	delete(s.data.Drafts, id)
	return s.save()
}

// Counts summarizes the stored drafts by wizard state.
func (s *JSONStore) Counts() DraftCounts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := DraftCounts{
		Total:   len(s.data.Drafts),
		ByState: make(map[models.WizardState]int),
	}
	for _, d := range s.data.Drafts {
		counts.ByState[d.State]++
	}
	return counts
}

// Close flushes the store and rejects further writes.
func (s *JSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	s.closed = true
	return s.save()
}
