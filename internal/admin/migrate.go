package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/JonMunkholm/storagetracker/internal/core"
	"github.com/JonMunkholm/storagetracker/internal/logging"
	"github.com/JonMunkholm/storagetracker/internal/store"
)

const boxField = "box"

// BoxMigration summarizes a MigrateBox run. Errors counts values that could
// not be converted (they are nulled) plus failed writes.
type BoxMigration struct {
	Total      int
	Updated    int
	Converted  int
	Nullified  int
	AlreadyInt int
	Errors     int
}

// boxAction is the decision for one stored box value.
type boxAction int

const (
	boxKeep boxAction = iota
	boxConvert
	boxNullify
	boxInvalid
)

// classifyBox decides what to store for a raw box value. Integral numbers
// and null are left alone; strings go through core.ParseBox.
func classifyBox(v any) (boxAction, *int) {
	switch x := v.(type) {
	case nil:
		return boxKeep, nil
	case int, int32, int64:
		return boxKeep, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return boxInvalid, nil
		}
		if x == math.Trunc(x) {
			return boxKeep, nil
		}
		n := int(x)
		return boxConvert, &n
	case json.Number:
		if _, err := x.Int64(); err == nil {
			return boxKeep, nil
		}
		return classifyBox(x.String())
	case string:
		if strings.TrimSpace(x) == "" {
			return boxNullify, nil
		}
		if n := core.ParseBox(x); n != nil {
			return boxConvert, n
		}
		return boxInvalid, nil
	default:
		return boxInvalid, nil
	}
}

// MigrateBox rewrites every item's box field as an integer or null.
func MigrateBox(ctx context.Context, st store.Store) (BoxMigration, error) {
	log := logging.FromContext(ctx)

	docs, err := store.Collect(st.Find(ctx, store.Items, nil))
	if err != nil {
		return BoxMigration{}, fmt.Errorf("load items: %w", err)
	}

	res := BoxMigration{Total: len(docs)}
	for _, doc := range docs {
		raw, ok := doc.Fields[boxField]
		if !ok {
			continue
		}

		action, n := classifyBox(raw)
		switch action {
		case boxKeep:
			if raw != nil {
				res.AlreadyInt++
			}
			continue
		case boxConvert:
			res.Converted++
		case boxNullify:
			res.Nullified++
		case boxInvalid:
			log.Warn("box value not convertible", "item_id", doc.ID, "value", raw)
			res.Errors++
			res.Nullified++
		}

		var value any
		if n != nil {
			value = *n
		}
		if _, err := st.Update(ctx, store.Items, doc.ID, nil, store.Fields{boxField: value}); err != nil {
			if ctx.Err() != nil {
				return res, err
			}
			log.Error("box update failed", "item_id", doc.ID, "error", err)
			res.Errors++
			continue
		}
		res.Updated++
	}
	return res, nil
}
