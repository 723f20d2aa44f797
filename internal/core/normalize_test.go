package core

import (
	"errors"
	"testing"
)

func TestNormalizeRow(t *testing.T) {
	idx := MakeHeaderIndex([]string{"ItemName", "ItemLocation", "Manufacturer", "ExpirationDate", "Box", "Units"})

	tests := []struct {
		name      string
		cells     []string
		wantErr   bool
		wantName  string
		wantBrand string
		wantExp   string
		wantBox   *int
		wantUnits string
	}{
		{
			name:      "full row",
			cells:     []string{"Beans", "Pantry", "Acme", "12/31/2025", "3", "cans"},
			wantName:  "Beans",
			wantBrand: "Acme",
			wantExp:   "2025-12-31",
			wantBox:   intPtr(3),
			wantUnits: "cans",
		},
		{
			name:     "spreadsheet quoted cells",
			cells:    []string{`="Beans"`, "Pantry", "", "", `"7"`, ""},
			wantName: "Beans",
			wantBox:  intPtr(7),
		},
		{
			name:      "quote marks in free text",
			cells:     []string{`2x4 board 96"`, "Garage", "Jones'", "", "", `6"`},
			wantName:  `2x4 board 96"`,
			wantBrand: "Jones'",
			wantUnits: `6"`,
		},
		{
			name:     "equals sign as name",
			cells:    []string{"=", "Garage"},
			wantName: "=",
		},
		{
			name:     "short row",
			cells:    []string{"Rice"},
			wantName: "Rice",
		},
		{
			name:     "unparseable values",
			cells:    []string{"Soup", "Pantry", "", "soon", "n/a", ""},
			wantName: "Soup",
		},
		{
			name:    "blank name",
			cells:   []string{"  ", "Pantry"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := NormalizeRow(NewRow(4, tt.cells, idx), "loc-1", "u1")
			if tt.wantErr {
				var mrf *MissingRequiredFieldError
				if !errors.As(err, &mrf) || mrf.Field != ColItemName || mrf.Row != 4 {
					t.Fatalf("err = %v, want MissingRequiredFieldError for %s on row 4", err, ColItemName)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if it.Name != tt.wantName || it.Brand != tt.wantBrand || it.ExpirationDate != tt.wantExp || it.Units != tt.wantUnits {
				t.Errorf("item = %+v", it)
			}
			if it.LocationID != "loc-1" || it.UserID != "u1" {
				t.Errorf("owner/location = %q/%q", it.UserID, it.LocationID)
			}
			switch {
			case tt.wantBox == nil && it.Box != nil:
				t.Errorf("box = %d, want nil", *it.Box)
			case tt.wantBox != nil && (it.Box == nil || *it.Box != *tt.wantBox):
				t.Errorf("box = %v, want %d", it.Box, *tt.wantBox)
			}
		})
	}
}

func intPtr(n int) *int { return &n }
