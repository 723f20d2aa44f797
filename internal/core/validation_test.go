package core

import (
	"errors"
	"testing"
)

func TestValidateHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		missing []string
	}{
		{name: "template header", headers: TemplateHeader()},
		{name: "required only, other case", headers: []string{"itemlocation", "ITEMNAME"}},
		{name: "extra columns ignored", headers: []string{"ItemName", "ItemLocation", "Notes"}},
		{name: "whitespace around names", headers: []string{" ItemName ", "ItemLocation "}},
		{name: "missing location", headers: []string{"ItemName", "Box"}, missing: []string{ColItemLocation}},
		{name: "missing both", headers: []string{"Box"}, missing: []string{ColItemName, ColItemLocation}},
		{name: "no header", headers: nil, missing: []string{ColItemName, ColItemLocation}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := ValidateHeaders(tt.headers, ImportColumns)
			if len(tt.missing) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !idx.Has(ColItemName) || !idx.Has(ColItemLocation) {
					t.Errorf("index missing required columns: %v", idx)
				}
				return
			}

			var mce *MissingColumnsError
			if !errors.As(err, &mce) {
				t.Fatalf("err = %v, want *MissingColumnsError", err)
			}
			if len(mce.Columns) != len(tt.missing) {
				t.Fatalf("Columns = %v, want %v", mce.Columns, tt.missing)
			}
			for i := range tt.missing {
				if mce.Columns[i] != tt.missing[i] {
					t.Errorf("Columns[%d] = %s, want %s", i, mce.Columns[i], tt.missing[i])
				}
			}
			if MapError(err).Code != "VAL004" {
				t.Errorf("MapError code = %s, want VAL004", MapError(err).Code)
			}
		})
	}
}

func TestValidateItem(t *testing.T) {
	tests := []struct {
		name    string
		item    Item
		wantErr bool
	}{
		{name: "valid", item: Item{Name: "Beans", LocationID: "loc"}},
		{name: "blank name", item: Item{Name: " ", LocationID: "loc"}, wantErr: true},
		{name: "no location", item: Item{Name: "Beans"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItem(tt.item)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestValidateLocationName(t *testing.T) {
	if err := ValidateLocationName("Pantry"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateLocationName("  "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
