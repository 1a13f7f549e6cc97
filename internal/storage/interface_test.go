package storage

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/quantrail/stratforge/internal/models"
)

// TestInterface tests the storage interface with both implementations
func TestInterface(t *testing.T) {
	t.Run("MockStore", func(t *testing.T) {
		testInterface(t, NewMockStore())
	})

	t.Run("JSONStore", func(t *testing.T) {
		tmpFile := fmt.Sprintf("%s/test_drafts_%d.json", t.TempDir(), time.Now().UnixNano())

		store, err := NewJSONStore(tmpFile, false)
		if err != nil {
			t.Fatalf("Failed to create JSON store: %v", err)
		}
		testInterface(t, store)
	})
}

// testInterface runs common tests on any storage implementation
func testInterface(t *testing.T, store Interface) {
	// Test initial state
	if drafts := store.GetDrafts(); len(drafts) != 0 {
		t.Errorf("Expected no drafts initially, got %d", len(drafts))
	}

	// Create a test draft and walk it to legs
	draft := models.NewDraft("Interface Test", models.IndexNifty, models.ExpiryWeekly)
	if _, err := draft.AddLeg(); err != nil {
		t.Fatalf("Failed to add leg: %v", err)
	}
	if err := draft.Advance(); err != nil {
		t.Fatalf("Failed to advance draft: %v", err)
	}

	if err := store.SaveDraft(*draft); err != nil {
		t.Fatalf("Failed to save draft: %v", err)
	}

	// Test retrieval by id
	loaded, ok := store.GetDraftByID(draft.ID)
	if !ok {
		t.Fatal("Expected draft to load, got none")
	}
	if loaded.ID != draft.ID {
		t.Errorf("Expected draft ID %s, got %s", draft.ID, loaded.ID)
	}
	if loaded.CurrentState() != models.WizardStateLegs {
		t.Errorf("Expected draft state %s, got %s", models.WizardStateLegs, loaded.CurrentState())
	}
	if len(loaded.Strategy.Legs) != 1 {
		t.Errorf("Expected 1 leg, got %d", len(loaded.Strategy.Legs))
	}

	// Mutate the returned copy; storage should be unaffected.
	loaded.Strategy.Name = "Mutated"
	loaded.Strategy.Legs[0].Lots = 99
	again, _ := store.GetDraftByID(draft.ID)
	if again.Strategy.Name == "Mutated" || again.Strategy.Legs[0].Lots == 99 {
		t.Error("GetDraftByID leaked internal state (mutation visible)")
	}

	// Upsert with new content
	draft.Strategy.Name = "Interface Test v2"
	if err := store.SaveDraft(*draft); err != nil {
		t.Fatalf("Failed to update draft: %v", err)
	}
	updated, _ := store.GetDraftByID(draft.ID)
	if updated.Strategy.Name != "Interface Test v2" {
		t.Errorf("Expected updated name, got %q", updated.Strategy.Name)
	}
	if got := len(store.GetDrafts()); got != 1 {
		t.Errorf("Upsert should not duplicate, got %d drafts", got)
	}

	// A second draft; listing is ordered by creation time
	second := models.NewDraft("Second", models.IndexBankNifty, models.ExpiryMonthly)
	second.CreatedAt = draft.CreatedAt.Add(time.Minute)
	if err := store.SaveDraft(*second); err != nil {
		t.Fatalf("Failed to save second draft: %v", err)
	}
	drafts := store.GetDrafts()
	if len(drafts) != 2 {
		t.Fatalf("Expected 2 drafts, got %d", len(drafts))
	}
	if drafts[0].ID != draft.ID || drafts[1].ID != second.ID {
		t.Error("Drafts should list in creation order")
	}

	// Counts by state
	counts := store.Counts()
	if counts.Total != 2 {
		t.Errorf("Expected total 2, got %d", counts.Total)
	}
	if counts.ByState[models.WizardStateLegs] != 1 || counts.ByState[models.WizardStateBasic] != 1 {
		t.Errorf("Expected one legs and one basic draft, got %v", counts.ByState)
	}

	// Deletion
	if err := store.DeleteDraft(draft.ID); err != nil {
		t.Fatalf("Failed to delete draft: %v", err)
	}
	if _, ok := store.GetDraftByID(draft.ID); ok {
		t.Error("Expected draft gone after delete")
	}
	if err := store.DeleteDraft(draft.ID); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("Expected ErrDraftNotFound for missing draft, got %v", err)
	}

	// Close rejects further writes
	if err := store.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}
	if err := store.SaveDraft(*second); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("Expected ErrStoreClosed after close, got %v", err)
	}
	if err := store.DeleteDraft(second.ID); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("Expected ErrStoreClosed after close, got %v", err)
	}
	if err := store.Close(); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("Expected ErrStoreClosed on double close, got %v", err)
	}
}

// TestMockStoreSpecificFeatures tests mock-specific features
func TestMockStoreSpecificFeatures(t *testing.T) {
	mock := NewMockStore()
	draft := models.NewDraft("Mock", models.IndexNifty, models.ExpiryWeekly)

	// Test error injection
	testErr := errors.New("test save error")
	mock.SetSaveError(testErr)
	if err := mock.SaveDraft(*draft); !errors.Is(err, testErr) {
		t.Errorf("Expected injected save error, got %v", err)
	}

	// Test call counting
	mock.SetSaveError(nil)
	if err := mock.SaveDraft(*draft); err != nil {
		t.Errorf("Unexpected save error: %v", err)
	}
	if err := mock.SaveDraft(*draft); err != nil {
		t.Errorf("Unexpected save error: %v", err)
	}
	if mock.GetSaveCallCount() != 3 { // 2 new + 1 from error test
		t.Errorf("Expected 3 save calls, got %d", mock.GetSaveCallCount())
	}

	deleteErr := errors.New("test delete error")
	mock.SetDeleteError(deleteErr)
	if err := mock.DeleteDraft(draft.ID); !errors.Is(err, deleteErr) {
		t.Errorf("Expected injected delete error, got %v", err)
	}
	if mock.GetDeleteCallCount() != 1 {
		t.Errorf("Expected 1 delete call, got %d", mock.GetDeleteCallCount())
	}
}

// TestInterfaceCompliance ensures all implementations satisfy the interface
func TestInterfaceCompliance(t *testing.T) {
	var _ Interface = (*MockStore)(nil)
	var _ Interface = (*JSONStore)(nil)

	// Test factory function
	tmpFile := fmt.Sprintf("%s/factory.json", t.TempDir())
	store, err := NewStorage(tmpFile, true)
	if err != nil {
		t.Fatalf("Factory function failed: %v", err)
	}
	_ = store
}
