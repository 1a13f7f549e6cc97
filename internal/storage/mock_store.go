package storage

import (
	"sort"
	"sync"

	"github.com/quantrail/stratforge/internal/models"
)

// MockStore implements Interface for testing
type MockStore struct {
	mu              sync.Mutex
	saveError       error
	deleteError     error
	drafts          map[string]models.Draft
	saveCallCount   int
	deleteCallCount int
	closed          bool
}

// NewMockStore creates a new mock store for testing
func NewMockStore() *MockStore {
	return &MockStore{
		drafts: make(map[string]models.Draft),
	}
}

func (m *MockStore) GetDrafts() []models.Draft {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Draft, 0, len(m.drafts))
	for _, d := range m.drafts {
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

func (m *MockStore) GetDraftByID(id string) (models.Draft, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.drafts[id]
	if !ok {
		return models.Draft{}, false
	}
	return d.Copy(), true
}

func (m *MockStore) SaveDraft(draft models.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saveCallCount++
	if m.closed {
		return ErrStoreClosed
	}
	if m.saveError != nil {
		return m.saveError
	}
	m.drafts[draft.ID] = draft.Copy()
	return nil
}

func (m *MockStore) DeleteDraft(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleteCallCount++
	if m.closed {
		return ErrStoreClosed
	}
	if m.deleteError != nil {
		return m.deleteError
	}
	if _, ok := m.drafts[id]; !ok {
		return ErrDraftNotFound
	}
	delete(m.drafts, id)
	return nil
}

func (m *MockStore) Counts() DraftCounts {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := DraftCounts{
		Total:   len(m.drafts),
		ByState: make(map[models.WizardState]int),
	}
	for _, d := range m.drafts {
		counts.ByState[d.State]++
	}
	return counts
}

func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	m.closed = true
	return nil
}

// Mock control methods for testing

func (m *MockStore) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

func (m *MockStore) SetDeleteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteError = err
}

func (m *MockStore) GetSaveCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCallCount
}

func (m *MockStore) GetDeleteCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteCallCount
}

// Ensure MockStore implements Interface
var _ Interface = (*MockStore)(nil)
