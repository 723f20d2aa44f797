package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/storagetracker/internal/store"
)

// LocationResolver maps free-text location names to location ids for one
// import run, creating locations that do not exist yet. A resolver belongs
// to a single run and must not be shared between goroutines.
type LocationResolver struct {
	store   *store.Scoped
	cache   map[string]string
	created int
}

// NewLocationResolver returns a resolver with an empty name cache.
func NewLocationResolver(h *store.Scoped) *LocationResolver {
	return &LocationResolver{
		store: h,
		cache: make(map[string]string),
	}
}

// Resolve returns the id of the owner's location named name, creating it if
// needed. Names are trimmed and then compared exactly. A blank name is a
// valid name.
func (r *LocationResolver) Resolve(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if id, ok := r.cache[name]; ok {
		return id, nil
	}

	doc, err := r.store.FindOne(ctx, store.Locations, store.Filter{fieldName: name})
	switch {
	case err == nil:
		r.cache[name] = doc.ID
		return doc.ID, nil
	case !errors.Is(err, store.ErrNotFound):
		return "", fmt.Errorf("look up location %q: %w", name, err)
	}

	id, err := r.store.Insert(ctx, store.Locations, store.Fields{
		fieldName:        name,
		fieldDescription: AutoCreatedDescription,
	})
	if err != nil {
		return "", fmt.Errorf("create location %q: %w", name, err)
	}
	r.cache[name] = id
	r.created++
	return id, nil
}

// Created returns how many locations this resolver has created.
func (r *LocationResolver) Created() int {
	return r.created
}
