package core

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/storagetracker/internal/store"
)

// UnknownLocation is displayed for items whose location no longer exists.
const UnknownLocation = "Unknown"

// AutoCreatedDescription is stored on locations created by an import.
const AutoCreatedDescription = "Auto-created from CSV import"

// User is an authenticated account. ID is the identity provider's subject
// or, when the provider supplies none, an id derived from the email address.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Location is a named physical storage place owned by one user.
type Location struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Item is a stored good. LocationID is a soft reference: the store does not
// check that the location exists.
type Item struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	LocationID string `json:"location_id"`

	Name             string `json:"name"`
	Brand            string `json:"brand"`
	Manufacturer     string `json:"manufacturer"`
	Size             string `json:"size"`
	Quantity         string `json:"quantity"`
	Units            string `json:"units"`
	ServingsPerUnit  string `json:"servings_per_unit"`
	NutritionalInfo  string `json:"nutritional_info"`
	Ingredients      string `json:"ingredients"`
	DatePurchased    string `json:"date_purchased"`
	ManufacturedDate string `json:"manufactured_date"`
	ExpirationDate   string `json:"expiration_date"`
	UPC              string `json:"upc"`
	OtherInfo        string `json:"other_info"`
	Box              *int   `json:"box"`
}

// ItemView is an item together with the display name of its location.
type ItemView struct {
	Item
	LocationName string `json:"location_name"`
}

// Document field keys.
const (
	fieldName             = "name"
	fieldDescription      = "description"
	fieldEmail            = "email"
	fieldLocationID       = "location_id"
	fieldBrand            = "brand"
	fieldManufacturer     = "manufacturer"
	fieldSize             = "size"
	fieldQuantity         = "quantity"
	fieldUnits            = "units"
	fieldServingsPerUnit  = "servings_per_unit"
	fieldNutritionalInfo  = "nutritional_info"
	fieldIngredients      = "ingredients"
	fieldDatePurchased    = "date_purchased"
	fieldManufacturedDate = "manufactured_date"
	fieldExpirationDate   = "expiration_date"
	fieldUPC              = "upc"
	fieldOtherInfo        = "other_info"
	fieldBox              = "box"
)

// Fields returns the mutable field set of the item, ready to store.
// Owner and id are not included.
func (it Item) Fields() store.Fields {
	f := store.Fields{
		fieldLocationID:       it.LocationID,
		fieldName:             it.Name,
		fieldBrand:            it.Brand,
		fieldManufacturer:     it.Manufacturer,
		fieldSize:             it.Size,
		fieldQuantity:         it.Quantity,
		fieldUnits:            it.Units,
		fieldServingsPerUnit:  it.ServingsPerUnit,
		fieldNutritionalInfo:  it.NutritionalInfo,
		fieldIngredients:      it.Ingredients,
		fieldDatePurchased:    it.DatePurchased,
		fieldManufacturedDate: it.ManufacturedDate,
		fieldExpirationDate:   it.ExpirationDate,
		fieldUPC:              it.UPC,
		fieldOtherInfo:        it.OtherInfo,
		fieldBox:              nil,
	}
	if it.Box != nil {
		f[fieldBox] = *it.Box
	}
	return f
}

func itemFromDoc(doc store.Document) Item {
	it := Item{
		ID:               doc.ID,
		UserID:           doc.String(store.FieldUserID),
		LocationID:       doc.String(fieldLocationID),
		Name:             doc.String(fieldName),
		Brand:            doc.String(fieldBrand),
		Manufacturer:     doc.String(fieldManufacturer),
		Size:             doc.String(fieldSize),
		Quantity:         doc.String(fieldQuantity),
		Units:            doc.String(fieldUnits),
		ServingsPerUnit:  doc.String(fieldServingsPerUnit),
		NutritionalInfo:  doc.String(fieldNutritionalInfo),
		Ingredients:      doc.String(fieldIngredients),
		DatePurchased:    doc.String(fieldDatePurchased),
		ManufacturedDate: doc.String(fieldManufacturedDate),
		ExpirationDate:   doc.String(fieldExpirationDate),
		UPC:              doc.String(fieldUPC),
		OtherInfo:        doc.String(fieldOtherInfo),
	}
	if box, ok := doc.Int(fieldBox); ok {
		it.Box = &box
	}
	return it
}

func locationFromDoc(doc store.Document) Location {
	return Location{
		ID:          doc.ID,
		UserID:      doc.String(store.FieldUserID),
		Name:        doc.String(fieldName),
		Description: doc.String(fieldDescription),
	}
}

func userFromDoc(doc store.Document) User {
	return User{
		ID:    doc.ID,
		Email: doc.String(fieldEmail),
		Name:  doc.String(fieldName),
	}
}

// HeaderIndex maps column names (lowercase) to their position in a row.
type HeaderIndex map[string]int

// Has reports whether the header declares column.
func (h HeaderIndex) Has(column string) bool {
	_, ok := h[strings.ToLower(column)]
	return ok
}

// Row is one data row of an import together with its header index.
type Row struct {
	// Line is the 1-based position of the row in the input, counting the
	// header as line 1.
	Line  int
	cells []string
	idx   HeaderIndex
}

// NewRow binds cells to a header index.
func NewRow(line int, cells []string, idx HeaderIndex) Row {
	return Row{Line: line, cells: cells, idx: idx}
}

// Get returns the cleaned value of column, or "" when the column is not in
// the header or the row is short.
func (r Row) Get(column string) string {
	pos, ok := r.idx[strings.ToLower(column)]
	if !ok || pos >= len(r.cells) {
		return ""
	}
	return CleanCell(r.cells[pos])
}

// IsEmpty reports whether every cell is blank.
func (r Row) IsEmpty() bool {
	for _, v := range r.cells {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// RowError is one failed row of an import.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// MaxReportedErrors caps the error sample returned in an ImportSummary.
const MaxReportedErrors = 5

// ImportSummary is the outcome of one import run.
type ImportSummary struct {
	ItemsImported    int        `json:"items_imported"`
	LocationsCreated int        `json:"locations_created"`
	ErrorCount       int        `json:"error_count"`
	Errors           []RowError `json:"errors"`
}

func (s *ImportSummary) addError(row int, err error) {
	s.ErrorCount++
	if len(s.Errors) < MaxReportedErrors {
		s.Errors = append(s.Errors, RowError{Row: row, Message: err.Error()})
	}
}

// Message renders the summary as one line for display.
func (s ImportSummary) Message() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Imported %d items and created %d new locations.", s.ItemsImported, s.LocationsCreated)
	if s.ErrorCount == 0 {
		return b.String()
	}

	fmt.Fprintf(&b, " %d rows failed", s.ErrorCount)
	if s.ErrorCount > len(s.Errors) {
		fmt.Fprintf(&b, " (first %d shown)", len(s.Errors))
	}
	b.WriteString(":")
	for i, e := range s.Errors {
		if i > 0 {
			b.WriteString(";")
		}
		fmt.Fprintf(&b, " Row %d: %s", e.Row, e.Message)
	}
	return b.String()
}
