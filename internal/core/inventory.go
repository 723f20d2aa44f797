package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/storagetracker/internal/store"
)

// Inventory is one user's locations and items. Every operation is confined
// to the owner's records.
type Inventory struct {
	svc *Service
	h   *store.Scoped
}

// UserID returns the owner of the inventory.
func (inv *Inventory) UserID() string {
	return inv.h.UserID()
}

// ----------------------------------------------------------------------------
// Locations
// ----------------------------------------------------------------------------

// ListLocations returns the owner's locations in creation order.
func (inv *Inventory) ListLocations(ctx context.Context) ([]Location, error) {
	out := []Location{}
	for doc, err := range inv.h.Find(ctx, store.Locations, nil) {
		if err != nil {
			return nil, fmt.Errorf("list locations: %w", err)
		}
		out = append(out, locationFromDoc(doc))
	}
	return out, nil
}

// GetLocation returns one location.
func (inv *Inventory) GetLocation(ctx context.Context, id string) (Location, error) {
	doc, err := inv.h.Get(ctx, store.Locations, id)
	if errors.Is(err, store.ErrNotFound) {
		return Location{}, ErrLocationNotFound
	}
	if err != nil {
		return Location{}, fmt.Errorf("get location: %w", err)
	}
	return locationFromDoc(doc), nil
}

// CreateLocation adds a location. The name is required.
func (inv *Inventory) CreateLocation(ctx context.Context, name, description string) (Location, error) {
	name = strings.TrimSpace(name)
	if err := ValidateLocationName(name); err != nil {
		return Location{}, err
	}

	id, err := inv.h.Insert(ctx, store.Locations, store.Fields{
		fieldName:        name,
		fieldDescription: description,
	})
	if err != nil {
		return Location{}, fmt.Errorf("create location: %w", err)
	}
	return Location{ID: id, UserID: inv.UserID(), Name: name, Description: description}, nil
}

// UpdateLocation overwrites the name and description of a location.
func (inv *Inventory) UpdateLocation(ctx context.Context, id, name, description string) (Location, error) {
	name = strings.TrimSpace(name)
	if err := ValidateLocationName(name); err != nil {
		return Location{}, err
	}

	ok, err := inv.h.Update(ctx, store.Locations, id, store.Fields{
		fieldName:        name,
		fieldDescription: description,
	})
	if err != nil {
		return Location{}, fmt.Errorf("update location: %w", err)
	}
	if !ok {
		return Location{}, ErrLocationNotFound
	}
	return Location{ID: id, UserID: inv.UserID(), Name: name, Description: description}, nil
}

// DeleteLocation removes a location. Items stored there are left in place
// and show the location as Unknown afterwards.
func (inv *Inventory) DeleteLocation(ctx context.Context, id string) error {
	ok, err := inv.h.Delete(ctx, store.Locations, id)
	if err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	if !ok {
		return ErrLocationNotFound
	}
	return nil
}

// ----------------------------------------------------------------------------
// Items
// ----------------------------------------------------------------------------

func (inv *Inventory) locationNames(ctx context.Context) (map[string]string, error) {
	names := make(map[string]string)
	for doc, err := range inv.h.Find(ctx, store.Locations, nil) {
		if err != nil {
			return nil, fmt.Errorf("load locations: %w", err)
		}
		names[doc.ID] = doc.String(fieldName)
	}
	return names, nil
}

func (inv *Inventory) listItems(ctx context.Context, filter store.Filter) ([]ItemView, error) {
	names, err := inv.locationNames(ctx)
	if err != nil {
		return nil, err
	}

	out := []ItemView{}
	for doc, err := range inv.h.Find(ctx, store.Items, filter) {
		if err != nil {
			return nil, fmt.Errorf("list items: %w", err)
		}
		it := itemFromDoc(doc)
		name, ok := names[it.LocationID]
		if !ok {
			name = UnknownLocation
		}
		out = append(out, ItemView{Item: it, LocationName: name})
	}
	return out, nil
}

// ListItems returns every item of the owner with its location name.
func (inv *Inventory) ListItems(ctx context.Context) ([]ItemView, error) {
	return inv.listItems(ctx, nil)
}

// ItemsAt returns the items stored at one location.
func (inv *Inventory) ItemsAt(ctx context.Context, locationID string) ([]ItemView, error) {
	return inv.listItems(ctx, store.Filter{fieldLocationID: locationID})
}

// GetItem returns one item with its location name.
func (inv *Inventory) GetItem(ctx context.Context, id string) (ItemView, error) {
	doc, err := inv.h.Get(ctx, store.Items, id)
	if errors.Is(err, store.ErrNotFound) {
		return ItemView{}, ErrItemNotFound
	}
	if err != nil {
		return ItemView{}, fmt.Errorf("get item: %w", err)
	}

	it := itemFromDoc(doc)
	view := ItemView{Item: it, LocationName: UnknownLocation}
	loc, err := inv.GetLocation(ctx, it.LocationID)
	switch {
	case err == nil:
		view.LocationName = loc.Name
	case !errors.Is(err, ErrLocationNotFound):
		return ItemView{}, err
	}
	return view, nil
}

// checkLocation verifies that the owner has a location with id.
func (inv *Inventory) checkLocation(ctx context.Context, id string) error {
	_, err := inv.GetLocation(ctx, id)
	return err
}

// CreateItem adds an item at one of the owner's locations.
func (inv *Inventory) CreateItem(ctx context.Context, it Item) (Item, error) {
	it.Name = strings.TrimSpace(it.Name)
	if err := ValidateItem(it); err != nil {
		return Item{}, err
	}
	if err := inv.checkLocation(ctx, it.LocationID); err != nil {
		return Item{}, err
	}

	id, err := inv.h.Insert(ctx, store.Items, it.Fields())
	if err != nil {
		return Item{}, fmt.Errorf("create item: %w", err)
	}
	it.ID = id
	it.UserID = inv.UserID()
	return it, nil
}

// UpdateItem overwrites every mutable field of an item.
func (inv *Inventory) UpdateItem(ctx context.Context, id string, it Item) (Item, error) {
	it.Name = strings.TrimSpace(it.Name)
	if err := ValidateItem(it); err != nil {
		return Item{}, err
	}
	if err := inv.checkLocation(ctx, it.LocationID); err != nil {
		return Item{}, err
	}

	ok, err := inv.h.Update(ctx, store.Items, id, it.Fields())
	if err != nil {
		return Item{}, fmt.Errorf("update item: %w", err)
	}
	if !ok {
		return Item{}, ErrItemNotFound
	}
	it.ID = id
	it.UserID = inv.UserID()
	return it, nil
}

// DeleteItem removes an item.
func (inv *Inventory) DeleteItem(ctx context.Context, id string) error {
	ok, err := inv.h.Delete(ctx, store.Items, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if !ok {
		return ErrItemNotFound
	}
	return nil
}
