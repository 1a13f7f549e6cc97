package storage

import (
	"github.com/quantrail/stratforge/internal/models"
)

// Interface defines the contract for draft session persistence.
//
// Implementations must be safe for concurrent use - callers can assume all methods
// are goroutine-safe and can safely call these methods from multiple goroutines.
//
// All methods traffic in deep copies: a draft handed to SaveDraft and a draft
// returned from a getter never share memory with the store's internal state.
type Interface interface {
	// Draft access
	GetDrafts() []models.Draft
	GetDraftByID(id string) (models.Draft, bool)
	SaveDraft(draft models.Draft) error
	DeleteDraft(id string) error

	// Analytics
	Counts() DraftCounts

	// Close flushes and rejects further writes.
	Close() error
}

// DraftCounts summarizes the store contents by wizard state.
type DraftCounts struct {
	Total   int                        `json:"total"`
	ByState map[models.WizardState]int `json:"by_state"`
}

// NewStorage creates a new storage implementation (currently JSON-based)
// In the future, this can be extended to support different storage backends
func NewStorage(filepath string, backups bool) (Interface, error) {
	return NewJSONStore(filepath, backups)
}

// Ensure JSONStore implements Interface
var _ Interface = (*JSONStore)(nil)
