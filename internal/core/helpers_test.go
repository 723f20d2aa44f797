package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/JonMunkholm/storagetracker/internal/store"
)

func newMemoryStore(t *testing.T) *store.Memory {
	t.Helper()
	m, err := store.NewMemory("")
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	return m
}

// csvInput builds a CSV row source from lines joined by newlines.
func csvInput(t *testing.T, lines ...string) RowSource {
	t.Helper()
	src, err := NewCSVSource(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		t.Fatalf("NewCSVSource: %v", err)
	}
	return src
}

func collectDocs(t *testing.T, st store.Store, coll store.Collection, filter store.Filter) []store.Document {
	t.Helper()
	docs, err := store.Collect(st.Find(context.Background(), coll, filter))
	if err != nil {
		t.Fatalf("Find %s: %v", coll, err)
	}
	return docs
}

// failingStore fails inserts chosen by failInsert and otherwise delegates.
type failingStore struct {
	store.Store
	failInsert func(coll store.Collection, fields store.Fields) error
}

func (f *failingStore) Insert(ctx context.Context, coll store.Collection, fields store.Fields) (string, error) {
	if f.failInsert != nil {
		if err := f.failInsert(coll, fields); err != nil {
			return "", err
		}
	}
	return f.Store.Insert(ctx, coll, fields)
}

var errDiskFull = errors.New("disk full")

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []any
	err    error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.events = append(p.events, v)
	return p.err
}
