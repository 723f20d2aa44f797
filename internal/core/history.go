package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/JonMunkholm/storagetracker/internal/store"
)

// DefaultHistoryLimit is how many runs ImportHistory returns when no limit
// is given.
const DefaultHistoryLimit = 20

// ImportRecord is one entry of a user's import history.
type ImportRecord struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Source string `json:"source"`
	ImportSummary
	Error      string    `json:"error,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}

const (
	fieldSource           = "source"
	fieldItemsImported    = "items_imported"
	fieldLocationsCreated = "locations_created"
	fieldErrorCount       = "error_count"
	fieldErrors           = "errors"
	fieldError            = "error"
	fieldIPAddress        = "ip_address"
	fieldUserAgent        = "user_agent"
	fieldDurationMS       = "duration_ms"
	fieldFinishedAt       = "finished_at"
	fieldRow              = "row"
	fieldMessage          = "message"
)

func (rec ImportRecord) fields() store.Fields {
	errs := make([]any, len(rec.Errors))
	for i, e := range rec.Errors {
		errs[i] = map[string]any{fieldRow: e.Row, fieldMessage: e.Message}
	}
	return store.Fields{
		fieldSource:           rec.Source,
		fieldItemsImported:    rec.ItemsImported,
		fieldLocationsCreated: rec.LocationsCreated,
		fieldErrorCount:       rec.ErrorCount,
		fieldErrors:           errs,
		fieldError:            rec.Error,
		fieldIPAddress:        rec.IPAddress,
		fieldUserAgent:        rec.UserAgent,
		fieldDurationMS:       rec.DurationMS,
		fieldFinishedAt:       rec.FinishedAt.Format(time.RFC3339Nano),
	}
}

func importRecordFromDoc(doc store.Document) ImportRecord {
	rec := ImportRecord{
		ID:        doc.ID,
		UserID:    doc.String(store.FieldUserID),
		Source:    doc.String(fieldSource),
		Error:     doc.String(fieldError),
		IPAddress: doc.String(fieldIPAddress),
		UserAgent: doc.String(fieldUserAgent),
		ImportSummary: ImportSummary{
			Errors: []RowError{},
		},
	}
	rec.ItemsImported, _ = doc.Int(fieldItemsImported)
	rec.LocationsCreated, _ = doc.Int(fieldLocationsCreated)
	rec.ErrorCount, _ = doc.Int(fieldErrorCount)
	if ms, ok := doc.Int(fieldDurationMS); ok {
		rec.DurationMS = int64(ms)
	}
	if t, err := time.Parse(time.RFC3339Nano, doc.String(fieldFinishedAt)); err == nil {
		rec.FinishedAt = t
	}

	// Stored errors come back as generic JSON values after a round trip.
	if list, ok := doc.Fields[fieldErrors].([]any); ok {
		for _, v := range list {
			m, ok := v.(map[string]any)
			if !ok {
				continue
			}
			entry := store.Document{Fields: m}
			row, _ := entry.Int(fieldRow)
			rec.Errors = append(rec.Errors, RowError{Row: row, Message: entry.String(fieldMessage)})
		}
	}
	return rec
}

// recordImport appends a run to the owner's history.
func (inv *Inventory) recordImport(ctx context.Context, rec ImportRecord) (string, error) {
	rec.IPAddress = IPAddressFromContext(ctx)
	rec.UserAgent = UserAgentFromContext(ctx)

	id, err := inv.h.Insert(ctx, store.Imports, rec.fields())
	if err != nil {
		return "", fmt.Errorf("record import: %w", err)
	}
	return id, nil
}

// ImportHistory returns the owner's most recent import runs, newest first.
// A limit of zero or less means DefaultHistoryLimit.
func (inv *Inventory) ImportHistory(ctx context.Context, limit int) ([]ImportRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	var out []ImportRecord
	for doc, err := range inv.h.Find(ctx, store.Imports, nil) {
		if err != nil {
			return nil, fmt.Errorf("list imports: %w", err)
		}
		out = append(out, importRecordFromDoc(doc))
	}
	slices.Reverse(out)
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []ImportRecord{}
	}
	return out, nil
}

// GetImport returns one run from the owner's history.
func (inv *Inventory) GetImport(ctx context.Context, id string) (ImportRecord, error) {
	doc, err := inv.h.Get(ctx, store.Imports, id)
	if errors.Is(err, store.ErrNotFound) {
		return ImportRecord{}, ErrImportNotFound
	}
	if err != nil {
		return ImportRecord{}, fmt.Errorf("get import: %w", err)
	}
	return importRecordFromDoc(doc), nil
}
