package core

import (
	"context"
	"errors"
	"testing"
)

func TestInventory_LocationLifecycle(t *testing.T) {
	ctx := context.Background()
	inv := NewService(newMemoryStore(t)).For("u1")

	if locs, err := inv.ListLocations(ctx); err != nil || locs == nil || len(locs) != 0 {
		t.Fatalf("ListLocations on empty = %v, %v; want empty non-nil", locs, err)
	}

	loc, err := inv.CreateLocation(ctx, "  Pantry ", "kitchen")
	if err != nil {
		t.Fatalf("CreateLocation: %v", err)
	}
	if loc.Name != "Pantry" || loc.UserID != "u1" {
		t.Errorf("location = %+v", loc)
	}

	if _, err := inv.CreateLocation(ctx, " ", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank name err = %v, want ErrInvalidInput", err)
	}

	updated, err := inv.UpdateLocation(ctx, loc.ID, "Larder", "")
	if err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}
	got, err := inv.GetLocation(ctx, loc.ID)
	if err != nil || got != updated {
		t.Errorf("GetLocation = %+v, %v; want %+v", got, err, updated)
	}

	if err := inv.DeleteLocation(ctx, loc.ID); err != nil {
		t.Fatalf("DeleteLocation: %v", err)
	}
	if _, err := inv.GetLocation(ctx, loc.ID); !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("after delete err = %v, want ErrLocationNotFound", err)
	}
	if err := inv.DeleteLocation(ctx, loc.ID); !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("second delete err = %v, want ErrLocationNotFound", err)
	}
}

func TestInventory_ItemLifecycle(t *testing.T) {
	ctx := context.Background()
	inv := NewService(newMemoryStore(t)).For("u1")
	pantry, _ := inv.CreateLocation(ctx, "Pantry", "")
	cellar, _ := inv.CreateLocation(ctx, "Cellar", "")

	item, err := inv.CreateItem(ctx, Item{Name: " Beans ", LocationID: pantry.ID, Box: intPtr(2)})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.Name != "Beans" || item.UserID != "u1" || item.ID == "" {
		t.Errorf("item = %+v", item)
	}

	view, err := inv.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if view.LocationName != "Pantry" || view.Box == nil || *view.Box != 2 {
		t.Errorf("view = %+v", view)
	}

	item.LocationID = cellar.ID
	item.Box = nil
	if _, err := inv.UpdateItem(ctx, item.ID, item); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	view, _ = inv.GetItem(ctx, item.ID)
	if view.LocationName != "Cellar" || view.Box != nil {
		t.Errorf("after update view = %+v", view)
	}

	at, err := inv.ItemsAt(ctx, cellar.ID)
	if err != nil || len(at) != 1 {
		t.Errorf("ItemsAt(cellar) = %v, %v", at, err)
	}
	at, _ = inv.ItemsAt(ctx, pantry.ID)
	if len(at) != 0 {
		t.Errorf("ItemsAt(pantry) = %v, want empty", at)
	}

	if _, err := inv.UpdateItem(ctx, "missing", item); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("update missing err = %v, want ErrItemNotFound", err)
	}
	if err := inv.DeleteItem(ctx, item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if _, err := inv.GetItem(ctx, item.ID); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("after delete err = %v, want ErrItemNotFound", err)
	}
}

func TestInventory_DanglingLocationShowsUnknown(t *testing.T) {
	ctx := context.Background()
	inv := NewService(newMemoryStore(t)).For("u1")
	loc, _ := inv.CreateLocation(ctx, "Shed", "")
	item, _ := inv.CreateItem(ctx, Item{Name: "Rake", LocationID: loc.ID})

	if err := inv.DeleteLocation(ctx, loc.ID); err != nil {
		t.Fatal(err)
	}

	items, err := inv.ListItems(ctx)
	if err != nil || len(items) != 1 {
		t.Fatalf("ListItems = %v, %v", items, err)
	}
	if items[0].LocationName != UnknownLocation {
		t.Errorf("LocationName = %q, want %q", items[0].LocationName, UnknownLocation)
	}
	view, _ := inv.GetItem(ctx, item.ID)
	if view.LocationName != UnknownLocation {
		t.Errorf("GetItem LocationName = %q, want %q", view.LocationName, UnknownLocation)
	}
}

func TestInventory_OwnersAreIsolated(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryStore(t))
	alice, bob := svc.For("alice"), svc.For("bob")

	aLoc, _ := alice.CreateLocation(ctx, "Pantry", "")
	aItem, _ := alice.CreateItem(ctx, Item{Name: "Beans", LocationID: aLoc.ID})

	if _, err := bob.GetLocation(ctx, aLoc.ID); !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("bob GetLocation err = %v, want ErrLocationNotFound", err)
	}
	if _, err := bob.GetItem(ctx, aItem.ID); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("bob GetItem err = %v, want ErrItemNotFound", err)
	}
	if _, err := bob.CreateItem(ctx, Item{Name: "Soup", LocationID: aLoc.ID}); !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("bob CreateItem at alice's location err = %v, want ErrLocationNotFound", err)
	}
	if err := bob.DeleteItem(ctx, aItem.ID); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("bob DeleteItem err = %v, want ErrItemNotFound", err)
	}
	if _, err := bob.UpdateLocation(ctx, aLoc.ID, "Mine", ""); !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("bob UpdateLocation err = %v, want ErrLocationNotFound", err)
	}

	if items, _ := bob.ListItems(ctx); len(items) != 0 {
		t.Errorf("bob sees %d items", len(items))
	}
	if items, _ := alice.ListItems(ctx); len(items) != 1 {
		t.Errorf("alice sees %d items, want 1", len(items))
	}
}
