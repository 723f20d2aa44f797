package core

import (
	"github.com/JonMunkholm/storagetracker/internal/store"
)

// NormalizeRow builds an item from one import row. The item name must be
// present; every other column is optional and falls back to its empty value.
// Unparseable dates become "" and an unparseable box becomes nil without
// failing the row.
func NormalizeRow(row Row, locationID, userID string) (Item, error) {
	name := row.Get(ColItemName)
	if name == "" {
		return Item{}, &MissingRequiredFieldError{Row: row.Line, Field: ColItemName}
	}

	fields := make(store.Fields, len(ImportColumns))
	for _, spec := range ImportColumns {
		if spec.Field == "" {
			continue
		}
		raw := row.Get(spec.Name)
		switch spec.Type {
		case FieldDate:
			fields[spec.Field] = ParseDate(raw)
		case FieldInt:
			if n := ParseBox(raw); n != nil {
				fields[spec.Field] = *n
			}
		default:
			fields[spec.Field] = raw
		}
	}

	item := itemFromDoc(store.Document{Fields: fields})
	item.Name = name
	item.LocationID = locationID
	item.UserID = userID
	return item, nil
}
