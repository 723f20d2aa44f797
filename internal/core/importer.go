package core

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/storagetracker/internal/store"
)

// ContextCheckInterval is how many rows are processed between checks for
// cancellation.
const ContextCheckInterval = 100

// RunImport reads every row of src into the owner's inventory.
//
// Rows are handled strictly in order: resolve the location, normalize the
// row, insert the item. A failing row is recorded in the summary and the run
// moves on; committed rows are never rolled back. The header must declare
// the ItemName and ItemLocation columns, otherwise a *MissingColumnsError is
// returned before any row is read. A source read error or cancellation stops
// the run and returns the partial summary alongside the error.
func RunImport(ctx context.Context, h *store.Scoped, src RowSource) (ImportSummary, error) {
	summary := ImportSummary{Errors: []RowError{}}

	idx, err := ValidateHeaders(src.Header(), ImportColumns)
	if err != nil {
		return summary, err
	}

	resolver := NewLocationResolver(h)

	for i := 0; ; i++ {
		if i%ContextCheckInterval == 0 && ctx.Err() != nil {
			summary.LocationsCreated = resolver.Created()
			return summary, ctx.Err()
		}

		cells, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			summary.LocationsCreated = resolver.Created()
			return summary, fmt.Errorf("read row %d: %w", i+2, err)
		}

		row := NewRow(i+2, cells, idx)
		if row.IsEmpty() {
			continue
		}

		if err := importRow(ctx, h, resolver, row); err != nil {
			summary.addError(row.Line, err)
			continue
		}
		summary.ItemsImported++
	}

	summary.LocationsCreated = resolver.Created()
	return summary, nil
}

func importRow(ctx context.Context, h *store.Scoped, resolver *LocationResolver, row Row) error {
	locationID, err := resolver.Resolve(ctx, row.Get(ColItemLocation))
	if err != nil {
		return err
	}

	item, err := NormalizeRow(row, locationID, h.UserID())
	if err != nil {
		return err
	}

	if _, err := h.Insert(ctx, store.Items, item.Fields()); err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}
