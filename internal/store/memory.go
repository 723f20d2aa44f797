package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store. When created with a snapshot path the full
// state is written to disk after every mutation and reloaded on start, which
// is enough for single-node development deployments.
type Memory struct {
	mu    sync.RWMutex
	colls map[Collection]*memCollection
	path  string
}

type memCollection struct {
	order []string
	docs  map[string]Fields
}

// snapshot is the on-disk layout of a Memory store.
type snapshot struct {
	Collections map[Collection][]snapshotDoc `json:"collections"`
}

type snapshotDoc struct {
	ID     string `json:"_id"`
	Fields Fields `json:"fields"`
}

// NewMemory creates a memory store. An empty path disables persistence.
//
// With a path, every write rewrites the whole snapshot file, so the cost of a
// write grows with the store and an N-row import writes O(N²) bytes. Use the
// postgres backend for anything beyond small development data sets.
func NewMemory(path string) (*Memory, error) {
	m := &Memory{
		colls: make(map[Collection]*memCollection),
		path:  path,
	}
	if path == "" {
		return m, nil
	}
	if err := m.load(); err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", path, err)
	}
	return m, nil
}

func (m *Memory) collection(coll Collection) *memCollection {
	c, ok := m.colls[coll]
	if !ok {
		c = &memCollection{docs: make(map[string]Fields)}
		m.colls[coll] = c
	}
	return c
}

// Find implements Store. The matching set is captured when iteration starts;
// documents written during iteration are not observed.
func (m *Memory) Find(ctx context.Context, coll Collection, filter Filter) iter.Seq2[Document, error] {
	return func(yield func(Document, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(Document{}, err)
			return
		}

		m.mu.RLock()
		var hits []Document
		if c, ok := m.colls[coll]; ok {
			for _, id := range c.order {
				fields := c.docs[id]
				if matches(id, fields, filter) {
					hits = append(hits, Document{ID: id, Fields: maps.Clone(fields)})
				}
			}
		}
		m.mu.RUnlock()

		for _, doc := range hits {
			if !yield(doc, nil) {
				return
			}
		}
	}
}

// FindOne implements Store.
func (m *Memory) FindOne(ctx context.Context, coll Collection, filter Filter) (Document, error) {
	for doc, err := range m.Find(ctx, coll, filter) {
		return doc, err
	}
	return Document{}, ErrNotFound
}

// Insert implements Store.
func (m *Memory) Insert(ctx context.Context, coll Collection, fields Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	err := m.mutateLocked(coll, func() {
		c := m.collection(coll)
		c.order = append(c.order, id)
		c.docs[id] = withoutID(fields)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Update implements Store.
func (m *Memory) Update(ctx context.Context, coll Collection, id string, filter Filter, patch Fields) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.colls[coll]
	if !ok {
		return false, nil
	}
	fields, ok := c.docs[id]
	if !ok || !matches(id, fields, filter) {
		return false, nil
	}

	updated := maps.Clone(fields)
	maps.Copy(updated, withoutID(patch))
	if err := m.mutateLocked(coll, func() { c.docs[id] = updated }); err != nil {
		return false, err
	}
	return true, nil
}

// Delete implements Store.
func (m *Memory) Delete(ctx context.Context, coll Collection, id string, filter Filter) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.colls[coll]
	if !ok {
		return false, nil
	}
	fields, ok := c.docs[id]
	if !ok || !matches(id, fields, filter) {
		return false, nil
	}

	err := m.mutateLocked(coll, func() {
		delete(c.docs, id)
		c.order = slices.DeleteFunc(c.order, func(oid string) bool { return oid == id })
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Upsert implements Store.
func (m *Memory) Upsert(ctx context.Context, coll Collection, id string, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return errors.New("upsert: empty id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.mutateLocked(coll, func() {
		c := m.collection(coll)
		existing, ok := c.docs[id]
		if !ok {
			c.order = append(c.order, id)
			existing = Fields{}
		}
		merged := maps.Clone(existing)
		maps.Copy(merged, withoutID(fields))
		c.docs[id] = merged
	})
}

// Reset implements Store.
func (m *Memory) Reset(ctx context.Context, coll Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.mutateLocked(coll, func() { delete(m.colls, coll) })
}

// Ping implements Store.
func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close implements Store.
func (m *Memory) Close() error {
	return nil
}

// mutateLocked applies change to coll and writes the snapshot. When the
// snapshot cannot be written the collection is restored to its previous
// state, so a failed write leaves no trace in memory. Callers hold m.mu.
func (m *Memory) mutateLocked(coll Collection, change func()) error {
	if m.path == "" {
		change()
		return nil
	}

	prev, existed := m.colls[coll]
	var saved *memCollection
	if existed {
		saved = &memCollection{order: slices.Clone(prev.order), docs: maps.Clone(prev.docs)}
	}

	change()
	if err := m.persistLocked(); err != nil {
		if existed {
			m.colls[coll] = saved
		} else {
			delete(m.colls, coll)
		}
		return err
	}
	return nil
}

// persistLocked writes the snapshot file. Callers hold m.mu.
func (m *Memory) persistLocked() error {
	if m.path == "" {
		return nil
	}

	snap := snapshot{Collections: make(map[Collection][]snapshotDoc, len(m.colls))}
	for name, c := range m.colls {
		docs := make([]snapshotDoc, 0, len(c.order))
		for _, id := range c.order {
			docs = append(docs, snapshotDoc{ID: id, Fields: c.docs[id]})
		}
		snap.Collections[name] = docs
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func (m *Memory) load() error {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	for name, docs := range snap.Collections {
		c := m.collection(name)
		for _, d := range docs {
			if d.Fields == nil {
				d.Fields = Fields{}
			}
			c.order = append(c.order, d.ID)
			c.docs[d.ID] = d.Fields
		}
	}
	return nil
}
