// Package admin provides maintenance operations over the record store.
// They run outside the web server, from storagectl.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/storagetracker/internal/logging"
	"github.com/JonMunkholm/storagetracker/internal/store"
)

// Timeout is the maximum duration of one maintenance operation.
const Timeout = 30 * time.Second

type resetFn func(ctx context.Context) error

// Reset removes every user, location, item and import record.
// This is a destructive operation - use with caution.
func Reset(ctx context.Context, st store.Store) error {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	var resets []resetFn
	for _, coll := range []store.Collection{store.Imports, store.Items, store.Locations, store.Users} {
		resets = append(resets, func(ctx context.Context) error {
			if err := st.Reset(ctx, coll); err != nil {
				return fmt.Errorf("reset %s: %w", coll, err)
			}
			logging.FromContext(ctx).Info("collection reset", "collection", string(coll))
			return nil
		})
	}
	return runResets(ctx, resets)
}

func runResets(ctx context.Context, resets []resetFn) error {
	for _, reset := range resets {
		if err := reset(ctx); err != nil {
			return err
		}
	}
	return nil
}
