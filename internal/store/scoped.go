package store

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"
)

// ErrUnscopedCollection is returned when a Scoped handle is asked to operate
// on a collection that has no per-user owner field.
var ErrUnscopedCollection = errors.New("collection is not owner-scoped")

// Scoped is a store handle bound to one user. Every read, update and delete
// is restricted to documents whose user_id equals the bound id, inserts are
// stamped with it, and patches cannot reassign ownership. Handlers receive a
// Scoped handle rather than the Store so that a missing owner filter cannot
// leak another tenant's records.
type Scoped struct {
	store  Store
	userID string
}

// Scope binds s to userID. It panics on an empty id: an unscoped handle is a
// programming error, not a runtime condition.
func Scope(s Store, userID string) *Scoped {
	if userID == "" {
		panic("store: Scope called with empty user id")
	}
	return &Scoped{store: s, userID: userID}
}

// UserID returns the owner this handle is bound to.
func (h *Scoped) UserID() string {
	return h.userID
}

func (h *Scoped) check(coll Collection) error {
	if coll == Users {
		return fmt.Errorf("%s: %w", coll, ErrUnscopedCollection)
	}
	return nil
}

func (h *Scoped) owned(filter Filter) Filter {
	f := make(Filter, len(filter)+1)
	maps.Copy(f, filter)
	f[FieldUserID] = h.userID
	return f
}

func (h *Scoped) stamped(fields Fields) Fields {
	f := make(Fields, len(fields)+1)
	maps.Copy(f, fields)
	f[FieldUserID] = h.userID
	return f
}

// Find returns the owner's documents matching filter.
func (h *Scoped) Find(ctx context.Context, coll Collection, filter Filter) iter.Seq2[Document, error] {
	if err := h.check(coll); err != nil {
		return func(yield func(Document, error) bool) { yield(Document{}, err) }
	}
	return h.store.Find(ctx, coll, h.owned(filter))
}

// FindOne returns the owner's first document matching filter.
func (h *Scoped) FindOne(ctx context.Context, coll Collection, filter Filter) (Document, error) {
	if err := h.check(coll); err != nil {
		return Document{}, err
	}
	return h.store.FindOne(ctx, coll, h.owned(filter))
}

// Get returns the owner's document with the given id.
func (h *Scoped) Get(ctx context.Context, coll Collection, id string) (Document, error) {
	return h.FindOne(ctx, coll, Filter{FieldID: id})
}

// Insert stores a document owned by the bound user.
func (h *Scoped) Insert(ctx context.Context, coll Collection, fields Fields) (string, error) {
	if err := h.check(coll); err != nil {
		return "", err
	}
	return h.store.Insert(ctx, coll, h.stamped(fields))
}

// Update patches the owner's document. Ownership in the patch is ignored.
func (h *Scoped) Update(ctx context.Context, coll Collection, id string, patch Fields) (bool, error) {
	if err := h.check(coll); err != nil {
		return false, err
	}
	p := maps.Clone(patch)
	delete(p, FieldUserID)
	return h.store.Update(ctx, coll, id, h.owned(nil), p)
}

// Delete removes the owner's document.
func (h *Scoped) Delete(ctx context.Context, coll Collection, id string) (bool, error) {
	if err := h.check(coll); err != nil {
		return false, err
	}
	return h.store.Delete(ctx, coll, id, h.owned(nil))
}
