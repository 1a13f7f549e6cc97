package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quantrail/stratforge/internal/models"
)

func TestNewJSONStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drafts.json")

	store, err := NewJSONStore(path, false)
	if err != nil {
		t.Fatalf("NewJSONStore failed: %v", err)
	}
	if store == nil {
		t.Fatal("Expected non-nil store")
	}
	if drafts := store.GetDrafts(); len(drafts) != 0 {
		t.Errorf("Expected 0 initial drafts, got %d", len(drafts))
	}
	// No file is written until the first mutation.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Store should not create the file before the first save")
	}
}

func TestJSONStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drafts.json")

	store, err := NewJSONStore(path, false)
	if err != nil {
		t.Fatalf("NewJSONStore failed: %v", err)
	}

	draft := models.NewDraft("Persisted", models.IndexFinNifty, models.ExpiryMonthly)
	draft.AddLeg()
	if err := draft.Advance(); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if err := store.SaveDraft(*draft); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	reopened, err := NewJSONStore(path, false)
	if err != nil {
		t.Fatalf("Reopening store failed: %v", err)
	}
	loaded, ok := reopened.GetDraftByID(draft.ID)
	if !ok {
		t.Fatal("Expected draft to survive reopen")
	}
	if loaded.Strategy.Name != "Persisted" || len(loaded.Strategy.Legs) != 1 {
		t.Error("Reopened draft should carry the saved strategy")
	}
	// The wizard machine rebuilds from the persisted state field.
	if loaded.CurrentState() != models.WizardStateLegs {
		t.Errorf("Expected reopened draft at legs, got %s", loaded.CurrentState())
	}
	if err := loaded.ValidateStateConsistency(); err != nil {
		t.Errorf("Reopened draft should be consistent: %v", err)
	}
}

func TestJSONStore_RecoversFromCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drafts.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("Writing corrupt file failed: %v", err)
	}

	store, err := NewJSONStore(path, false)
	if err != nil {
		t.Fatalf("Expected corrupt file to be recovered, got error: %v", err)
	}
	if drafts := store.GetDrafts(); len(drafts) != 0 {
		t.Errorf("Expected empty store after recovery, got %d drafts", len(drafts))
	}

	// The unreadable file is kept for inspection.
	quarantined, err := os.ReadFile(path + ".corrupt")
	if err != nil {
		t.Fatalf("Expected quarantined file: %v", err)
	}
	if string(quarantined) != "{not json" {
		t.Error("Quarantined file should hold the original bytes")
	}
}

func TestJSONStore_BackupRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drafts.json")

	store, err := NewJSONStore(path, true)
	if err != nil {
		t.Fatalf("NewJSONStore failed: %v", err)
	}

	first := models.NewDraft("First", models.IndexNifty, models.ExpiryWeekly)
	if err := store.SaveDraft(*first); err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	// No backup yet: there was nothing to rotate.
	if _, err := os.Stat(path + ".bak"); !os.IsNotExist(err) {
		t.Error("First save should not create a backup")
	}

	second := models.NewDraft("Second", models.IndexNifty, models.ExpiryWeekly)
	if err := store.SaveDraft(*second); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	backup, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("Expected backup after second save: %v", err)
	}
	if !strings.Contains(string(backup), first.ID) {
		t.Error("Backup should hold the previous file contents")
	}
	if strings.Contains(string(backup), second.ID) {
		t.Error("Backup should not hold the latest write")
	}
}

func TestJSONStore_FileOmitsMachine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drafts.json")

	store, err := NewJSONStore(path, false)
	if err != nil {
		t.Fatalf("NewJSONStore failed: %v", err)
	}
	draft := models.NewDraft("NoMachine", models.IndexNifty, models.ExpiryWeekly)
	if err := store.SaveDraft(*draft); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Reading store file failed: %v", err)
	}
	if strings.Contains(string(data), "transition") {
		t.Error("Store file should not carry wizard machine internals")
	}
	if !strings.Contains(string(data), `"state": "basic"`) {
		t.Error("Store file should carry the canonical state field")
	}
}
