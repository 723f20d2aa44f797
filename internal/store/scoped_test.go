package store

import (
	"context"
	"errors"
	"testing"
)

func TestScoped_IsolatesOwners(t *testing.T) {
	ctx := context.Background()
	m, _ := NewMemory("")
	alice := Scope(m, "alice")
	bob := Scope(m, "bob")

	aliceID, err := alice.Insert(ctx, Locations, Fields{"name": "Pantry"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := bob.Insert(ctx, Locations, Fields{"name": "Pantry"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	raw, _ := m.FindOne(ctx, Locations, Filter{FieldID: aliceID})
	if raw.String(FieldUserID) != "alice" {
		t.Errorf("insert not stamped with owner: %v", raw.Fields)
	}

	docs, err := Collect(alice.Find(ctx, Locations, Filter{"name": "Pantry"}))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != aliceID {
		t.Fatalf("alice sees %+v, want only her own location", docs)
	}

	if _, err := bob.Get(ctx, Locations, aliceID); !errors.Is(err, ErrNotFound) {
		t.Errorf("bob.Get(alice's id) err = %v, want ErrNotFound", err)
	}
}

func TestScoped_FilterCannotOverrideOwner(t *testing.T) {
	ctx := context.Background()
	m, _ := NewMemory("")
	_, _ = Scope(m, "alice").Insert(ctx, Items, Fields{"name": "Beans"})

	docs, _ := Collect(Scope(m, "bob").Find(ctx, Items, Filter{FieldUserID: "alice"}))
	if len(docs) != 0 {
		t.Errorf("caller-supplied user_id leaked %d documents", len(docs))
	}
}

func TestScoped_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	m, _ := NewMemory("")
	alice := Scope(m, "alice")
	bob := Scope(m, "bob")

	id, _ := alice.Insert(ctx, Items, Fields{"name": "Beans"})

	if ok, _ := bob.Update(ctx, Items, id, Fields{"name": "Mine now"}); ok {
		t.Error("bob updated alice's item")
	}
	if ok, _ := bob.Delete(ctx, Items, id); ok {
		t.Error("bob deleted alice's item")
	}

	ok, err := alice.Update(ctx, Items, id, Fields{"name": "Black Beans", FieldUserID: "bob"})
	if err != nil || !ok {
		t.Fatalf("Update = (%v, %v)", ok, err)
	}
	doc, _ := alice.Get(ctx, Items, id)
	if doc.String("name") != "Black Beans" {
		t.Errorf("name = %q", doc.String("name"))
	}
	if doc.String(FieldUserID) != "alice" {
		t.Errorf("patch reassigned owner to %q", doc.String(FieldUserID))
	}

	if ok, err := alice.Delete(ctx, Items, id); err != nil || !ok {
		t.Fatalf("Delete = (%v, %v)", ok, err)
	}
}

func TestScoped_RejectsUsersCollection(t *testing.T) {
	ctx := context.Background()
	m, _ := NewMemory("")
	h := Scope(m, "alice")

	if _, err := h.Insert(ctx, Users, Fields{}); !errors.Is(err, ErrUnscopedCollection) {
		t.Errorf("Insert err = %v, want ErrUnscopedCollection", err)
	}
	if _, err := Collect(h.Find(ctx, Users, nil)); !errors.Is(err, ErrUnscopedCollection) {
		t.Errorf("Find err = %v, want ErrUnscopedCollection", err)
	}
}

func TestScope_PanicsOnEmptyUser(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Scope with empty user id should panic")
		}
	}()
	m, _ := NewMemory("")
	Scope(m, "")
}
