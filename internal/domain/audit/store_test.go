package audit

import (
	"fmt"
	"testing"
)

func TestStore_RecordAndList(t *testing.T) {
	store := NewStore()

	store.Record("doctor1", ActionSearch, "terminology", map[string]any{"query": "fever"})
	store.Record("doctor2", ActionTranslate, "terminology", nil)
	store.Record("doctor1", ActionSearch, "terminology", map[string]any{"query": "jwara"})

	if store.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", store.Len())
	}

	all := store.List("", "", 10)
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	// newest first
	if all[0].Details["query"] != "jwara" {
		t.Errorf("expected newest entry first, got %+v", all[0])
	}

	byUser := store.List("doctor1", "", 10)
	if len(byUser) != 2 {
		t.Errorf("user filter: expected 2 entries, got %d", len(byUser))
	}

	byAction := store.List("", ActionTranslate, 10)
	if len(byAction) != 1 || byAction[0].UserID != "doctor2" {
		t.Errorf("action filter: got %+v", byAction)
	}
}

func TestStore_ListLimit(t *testing.T) {
	store := NewStore()
	for i := 0; i < 10; i++ {
		store.Record("u", ActionLookup, "terminology", map[string]any{"i": fmt.Sprint(i)})
	}

	limited := store.List("", "", 3)
	if len(limited) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(limited))
	}
	if limited[0].Details["i"] != "9" {
		t.Errorf("expected newest entry first, got %+v", limited[0])
	}
}

func TestStore_EntriesCarryIdentity(t *testing.T) {
	store := NewStore()
	entry := store.Record("admin", ActionImport, "terminology", nil)

	if entry.ID == "" {
		t.Error("entry id not assigned")
	}
	if entry.Timestamp.IsZero() {
		t.Error("entry timestamp not assigned")
	}
}
