package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestMemory_InsertFind(t *testing.T) {
	ctx := context.Background()
	m, err := NewMemory("")
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}

	idA, err := m.Insert(ctx, Locations, Fields{"name": "Pantry", "user_id": "u1"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	idB, _ := m.Insert(ctx, Locations, Fields{"name": "Garage", "user_id": "u1"})
	_, _ = m.Insert(ctx, Locations, Fields{"name": "Pantry", "user_id": "u2"})

	if idA == "" || idA == idB {
		t.Fatalf("expected distinct generated ids, got %q and %q", idA, idB)
	}

	docs, err := Collect(m.Find(ctx, Locations, Filter{"user_id": "u1"}))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("Find returned %d docs, want 2", len(docs))
	}
	if docs[0].ID != idA || docs[1].ID != idB {
		t.Errorf("Find order = [%s %s], want insertion order [%s %s]", docs[0].ID, docs[1].ID, idA, idB)
	}

	doc, err := m.FindOne(ctx, Locations, Filter{"name": "Pantry", "user_id": "u1"})
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if doc.ID != idA {
		t.Errorf("FindOne id = %s, want %s", doc.ID, idA)
	}

	if _, err := m.FindOne(ctx, Locations, Filter{"name": "pantry"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindOne is case-sensitive; got err = %v, want ErrNotFound", err)
	}
}

func TestMemory_FindByID(t *testing.T) {
	ctx := context.Background()
	m, _ := NewMemory("")

	id, _ := m.Insert(ctx, Items, Fields{"name": "Beans"})
	doc, err := m.FindOne(ctx, Items, Filter{FieldID: id})
	if err != nil {
		t.Fatalf("FindOne by id: %v", err)
	}
	if doc.String("name") != "Beans" {
		t.Errorf("name = %q, want Beans", doc.String("name"))
	}
}

func TestMemory_FindIsLazy(t *testing.T) {
	ctx := context.Background()
	m, _ := NewMemory("")
	for range 5 {
		_, _ = m.Insert(ctx, Items, Fields{"user_id": "u1"})
	}

	seen := 0
	for _, err := range m.Find(ctx, Items, nil) {
		if err != nil {
			t.Fatal(err)
		}
		seen++
		if seen == 2 {
			break
		}
	}
	if seen != 2 {
		t.Errorf("iteration did not stop early: seen %d", seen)
	}
}

func TestMemory_UpdateRespectsFilter(t *testing.T) {
	ctx := context.Background()
	m, _ := NewMemory("")
	id, _ := m.Insert(ctx, Items, Fields{"name": "Beans", "user_id": "u1", "box": 3})

	ok, err := m.Update(ctx, Items, id, Filter{"user_id": "u2"}, Fields{"name": "Stolen"})
	if err != nil || ok {
		t.Fatalf("Update with foreign owner = (%v, %v), want (false, nil)", ok, err)
	}

	ok, err = m.Update(ctx, Items, id, Filter{"user_id": "u1"}, Fields{"name": "Black Beans", FieldID: "ignored"})
	if err != nil || !ok {
		t.Fatalf("Update = (%v, %v), want (true, nil)", ok, err)
	}

	doc, _ := m.FindOne(ctx, Items, Filter{FieldID: id})
	if doc.String("name") != "Black Beans" {
		t.Errorf("name = %q, want Black Beans", doc.String("name"))
	}
	if box, ok := doc.Int("box"); !ok || box != 3 {
		t.Errorf("untouched field box = %v/%v, want 3", box, ok)
	}
}

func TestMemory_Delete(t *testing.T) {
	ctx := context.Background()
	m, _ := NewMemory("")
	id, _ := m.Insert(ctx, Items, Fields{"user_id": "u1"})

	if ok, _ := m.Delete(ctx, Items, id, Filter{"user_id": "u2"}); ok {
		t.Fatal("Delete matched a foreign owner")
	}
	if ok, err := m.Delete(ctx, Items, id, Filter{"user_id": "u1"}); err != nil || !ok {
		t.Fatalf("Delete = (%v, %v), want (true, nil)", ok, err)
	}
	if ok, _ := m.Delete(ctx, Items, id, nil); ok {
		t.Error("second Delete should not match")
	}
	docs, _ := Collect(m.Find(ctx, Items, nil))
	if len(docs) != 0 {
		t.Errorf("collection should be empty, has %d", len(docs))
	}
}

func TestMemory_UpsertMerges(t *testing.T) {
	ctx := context.Background()
	m, _ := NewMemory("")

	if err := m.Upsert(ctx, Users, "sub-1", Fields{"email": "a@example.com", "name": "A"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := m.Upsert(ctx, Users, "sub-1", Fields{"name": "Alice"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	docs, _ := Collect(m.Find(ctx, Users, nil))
	if len(docs) != 1 {
		t.Fatalf("users = %d, want 1", len(docs))
	}
	if docs[0].String("email") != "a@example.com" || docs[0].String("name") != "Alice" {
		t.Errorf("merged user = %v", docs[0].Fields)
	}
}

func TestMemory_NilFilterMatchesAbsent(t *testing.T) {
	ctx := context.Background()
	m, _ := NewMemory("")
	_, _ = m.Insert(ctx, Items, Fields{"name": "a"})
	_, _ = m.Insert(ctx, Items, Fields{"name": "b", "box": nil})
	_, _ = m.Insert(ctx, Items, Fields{"name": "c", "box": 2})

	docs, _ := Collect(m.Find(ctx, Items, Filter{"box": nil}))
	if len(docs) != 2 {
		t.Errorf("null filter matched %d docs, want 2", len(docs))
	}
	docs, _ = Collect(m.Find(ctx, Items, Filter{"box": 2.0}))
	if len(docs) != 1 {
		t.Errorf("numeric filter matched %d docs, want 1", len(docs))
	}
}

func TestMemory_Reset(t *testing.T) {
	ctx := context.Background()
	m, _ := NewMemory("")
	_, _ = m.Insert(ctx, Items, Fields{"name": "a"})
	_, _ = m.Insert(ctx, Locations, Fields{"name": "b"})

	if err := m.Reset(ctx, Items); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if docs, _ := Collect(m.Find(ctx, Items, nil)); len(docs) != 0 {
		t.Errorf("items after reset = %d", len(docs))
	}
	if docs, _ := Collect(m.Find(ctx, Locations, nil)); len(docs) != 1 {
		t.Errorf("locations should survive items reset, got %d", len(docs))
	}
}

func TestMemory_SnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "store.json")

	m, err := NewMemory(path)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	id, _ := m.Insert(ctx, Items, Fields{"name": "Soup", "box": 7, "user_id": "u1"})
	_, _ = m.Insert(ctx, Items, Fields{"name": "Rice", "user_id": "u1"})

	reopened, err := NewMemory(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	docs, err := Collect(reopened.Find(ctx, Items, Filter{"user_id": "u1"}))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != id {
		t.Fatalf("reloaded docs = %+v", docs)
	}
	if box, ok := docs[0].Int("box"); !ok || box != 7 {
		t.Errorf("box after reload = %v/%v, want 7", box, ok)
	}
}

func TestMemory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m, _ := NewMemory("")

	if _, err := m.Insert(ctx, Items, Fields{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Insert err = %v, want context.Canceled", err)
	}
	if _, err := Collect(m.Find(ctx, Items, nil)); !errors.Is(err, context.Canceled) {
		t.Errorf("Find err = %v, want context.Canceled", err)
	}
}

// breakSnapshotDir replaces the snapshot directory with a regular file so
// every later snapshot write fails.
func breakSnapshotDir(t *testing.T, dir string) {
	t.Helper()
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dir, []byte("not a directory"), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestMemory_FailedSnapshotLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	m, err := NewMemory(filepath.Join(dir, "store.json"))
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}

	id, err := m.Insert(ctx, Items, Fields{"name": "Beans", "user_id": "u1"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := m.Upsert(ctx, Users, "u1", Fields{"name": "Alice"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	breakSnapshotDir(t, dir)

	if _, err := m.Insert(ctx, Items, Fields{"name": "Rice"}); err == nil {
		t.Error("Insert succeeded with a broken snapshot")
	}
	if _, err := m.Insert(ctx, Locations, Fields{"name": "Pantry"}); err == nil {
		t.Error("Insert into a new collection succeeded with a broken snapshot")
	}
	if _, err := m.Update(ctx, Items, id, nil, Fields{"name": "Black Beans"}); err == nil {
		t.Error("Update succeeded with a broken snapshot")
	}
	if err := m.Upsert(ctx, Users, "u1", Fields{"name": "Mallory"}); err == nil {
		t.Error("Upsert succeeded with a broken snapshot")
	}
	if err := m.Upsert(ctx, Users, "u2", Fields{"name": "Bob"}); err == nil {
		t.Error("Upsert of a new id succeeded with a broken snapshot")
	}
	if _, err := m.Delete(ctx, Items, id, nil); err == nil {
		t.Error("Delete succeeded with a broken snapshot")
	}
	if err := m.Reset(ctx, Items); err == nil {
		t.Error("Reset succeeded with a broken snapshot")
	}

	items, err := Collect(m.Find(ctx, Items, nil))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID != id || items[0].String("name") != "Beans" {
		t.Errorf("items = %+v, want only the original Beans", items)
	}
	if locs, _ := Collect(m.Find(ctx, Locations, nil)); len(locs) != 0 {
		t.Errorf("locations = %d, want 0", len(locs))
	}
	users, _ := Collect(m.Find(ctx, Users, nil))
	if len(users) != 1 || users[0].String("name") != "Alice" {
		t.Errorf("users = %+v, want only Alice", users)
	}
}
