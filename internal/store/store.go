// Package store provides the document-oriented record store used by the
// inventory service.
//
// Records live in named collections and are addressed by opaque string
// identifiers. Queries are equality filters over top-level fields; the
// special key "_id" matches the identifier. The store performs no
// authorization of its own: callers that act on behalf of a user go through
// a [Scoped] handle, which merges the owner filter into every operation.
//
// Each operation is atomic for a single document. There are no transactions
// spanning documents or collections.
package store

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"reflect"
	"strconv"
)

// Collection names a group of documents.
type Collection string

// Collections used by the application. The first three names match
// existing deployments' data sets.
const (
	Users     Collection = "users"
	Locations Collection = "locations"
	Items     Collection = "storage_items"
	Imports   Collection = "imports"
)

// Well-known field keys.
const (
	FieldID     = "_id"
	FieldUserID = "user_id"
)

// ErrNotFound is returned by FindOne when no document matches.
var ErrNotFound = errors.New("record not found")

// Filter is a set of field equality conditions combined with AND.
// A nil or empty filter matches every document in the collection.
type Filter map[string]any

// Fields is the body of a document.
type Fields map[string]any

// Document is a stored record together with its identifier.
type Document struct {
	ID     string
	Fields Fields
}

// String returns the field as a string, or "" when it is absent or not a string.
func (d Document) String(key string) string {
	s, _ := d.Fields[key].(string)
	return s
}

// Int returns the field as an int. Numbers decoded from JSON arrive as
// float64 or json-like numeric strings depending on the backend, so both are
// accepted. The second result is false for absent, null or non-numeric values.
func (d Document) Int(key string) (int, bool) {
	return toInt(d.Fields[key])
}

// Store is the record persistence contract.
type Store interface {
	// Find returns a lazy sequence over the documents matching filter, in
	// insertion order. Iteration stops at the first error.
	Find(ctx context.Context, coll Collection, filter Filter) iter.Seq2[Document, error]

	// FindOne returns the first document matching filter, or ErrNotFound.
	FindOne(ctx context.Context, coll Collection, filter Filter) (Document, error)

	// Insert stores a new document and returns its generated identifier.
	Insert(ctx context.Context, coll Collection, fields Fields) (string, error)

	// Update merges patch into the document with the given id if it also
	// matches filter. It reports whether a document matched.
	Update(ctx context.Context, coll Collection, id string, filter Filter, patch Fields) (bool, error)

	// Delete removes the document with the given id if it also matches
	// filter. It reports whether a document matched.
	Delete(ctx context.Context, coll Collection, id string, filter Filter) (bool, error)

	// Upsert stores fields under a caller-chosen id, merging into any
	// existing document.
	Upsert(ctx context.Context, coll Collection, id string, fields Fields) error

	// Reset removes every document in the collection.
	Reset(ctx context.Context, coll Collection) error

	Ping(ctx context.Context) error
	Close() error
}

// Collect drains a Find sequence into a slice.
func Collect(seq iter.Seq2[Document, error]) ([]Document, error) {
	var docs []Document
	for doc, err := range seq {
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// matches reports whether a document satisfies every condition in filter.
// A nil filter value matches an absent field, mirroring document databases.
func matches(id string, fields Fields, filter Filter) bool {
	for key, want := range filter {
		if key == FieldID {
			if s, ok := want.(string); !ok || s != id {
				return false
			}
			continue
		}
		got, ok := fields[key]
		if !ok {
			if want == nil {
				continue
			}
			return false
		}
		if !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func toInt(v any) (int, bool) {
	if f, ok := toFloat(v); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int(f), true
	}
	if s, ok := v.(fmt.Stringer); ok {
		n, err := strconv.Atoi(s.String())
		return n, err == nil
	}
	return 0, false
}

// withoutID returns a copy of fields without the reserved identifier key.
func withoutID(fields Fields) Fields {
	out := make(Fields, len(fields))
	for k, v := range fields {
		if k == FieldID {
			continue
		}
		out[k] = v
	}
	return out
}
