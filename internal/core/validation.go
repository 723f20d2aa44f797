package core

// validation.go describes the columns an import understands and checks a
// header row against them before any data row is touched.

import (
	"fmt"
	"strings"
)

// Import column names as they appear in spreadsheet headers.
// Matching is case-insensitive.
const (
	ColItemName         = "ItemName"
	ColItemLocation     = "ItemLocation"
	ColManufacturer     = "Manufacturer"
	ColQuantity         = "Quantity"
	ColServingsPer      = "Servings Per"
	ColServingsSize     = "Servings Size"
	ColUnits            = "Units"
	ColExpirationDate   = "ExpirationDate"
	ColBox              = "Box"
	ColManufacturedDate = "Manufactured Date"
	ColUPC              = "UPC"
	ColServings         = "Servings"
	ColDamaged          = "Damaged"
	ColIngredients      = "Ingredients"
	ColDatePurchased    = "DatePurchased"
)

// FieldType selects how a column's cell is converted.
type FieldType int

const (
	FieldText FieldType = iota
	FieldDate
	FieldInt
)

// ColumnSpec maps one import column onto an item field.
type ColumnSpec struct {
	Name     string    // header name
	Field    string    // item document key; empty when handled elsewhere
	Type     FieldType // conversion applied to the cell
	Required bool      // column must exist in the header
}

// ImportColumns lists every column an import recognizes, in template order.
// Columns not listed here are ignored.
var ImportColumns = []ColumnSpec{
	{Name: ColItemName, Field: fieldName, Required: true},
	{Name: ColItemLocation, Required: true}, // resolved to location_id
	{Name: ColManufacturer, Field: fieldBrand},
	{Name: ColQuantity, Field: fieldQuantity},
	{Name: ColServingsPer, Field: fieldServingsPerUnit},
	{Name: ColServingsSize, Field: fieldSize},
	{Name: ColUnits, Field: fieldUnits},
	{Name: ColExpirationDate, Field: fieldExpirationDate, Type: FieldDate},
	{Name: ColBox, Field: fieldBox, Type: FieldInt},
	{Name: ColManufacturedDate, Field: fieldManufacturedDate, Type: FieldDate},
	{Name: ColUPC, Field: fieldUPC},
	{Name: ColServings, Field: fieldNutritionalInfo},
	{Name: ColDamaged, Field: fieldOtherInfo},
	{Name: ColIngredients, Field: fieldIngredients},
	{Name: ColDatePurchased, Field: fieldDatePurchased},
}

// TemplateHeader returns the header row of an empty import template.
func TemplateHeader() []string {
	out := make([]string, len(ImportColumns))
	for i, c := range ImportColumns {
		out[i] = c.Name
	}
	return out
}

// ValidateHeaders checks that every required column exists in the header.
// It returns the header index, or a *MissingColumnsError naming the absent
// columns.
func ValidateHeaders(headers []string, specs []ColumnSpec) (HeaderIndex, error) {
	idx := MakeHeaderIndex(headers)
	var missing []string

	for _, spec := range specs {
		if spec.Required && !idx.Has(spec.Name) {
			missing = append(missing, spec.Name)
		}
	}

	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}
	return idx, nil
}

// ValidateLocationName checks a location name submitted through the API.
func ValidateLocationName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: location name is required", ErrInvalidInput)
	}
	return nil
}

// ValidateItem checks an item submitted through the API.
func ValidateItem(it Item) error {
	if strings.TrimSpace(it.Name) == "" {
		return fmt.Errorf("%w: item name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(it.LocationID) == "" {
		return fmt.Errorf("%w: location_id is required", ErrInvalidInput)
	}
	return nil
}
