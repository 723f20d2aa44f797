package admin

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/storagetracker/internal/core"
	"github.com/JonMunkholm/storagetracker/internal/store"
)

// SeedStats counts the records written by Seed.
type SeedStats struct {
	Users     int
	Locations int
	Items     int
}

type seedLocation struct {
	name, description string
	items             []core.Item
}

type seedUser struct {
	user      core.User
	locations []seedLocation
}

var demoData = []seedUser{
	{
		user: core.User{ID: "demo-user", Email: "demo@example.com", Name: "Demo User"},
		locations: []seedLocation{
			{name: "Pantry", description: "Main kitchen pantry", items: []core.Item{
				{Name: "Canned Beans", Brand: "BestBeans", Size: "15oz", NutritionalInfo: "Protein-rich",
					DatePurchased: "2025-06-01", ExpirationDate: "2026-06-01", Ingredients: "Beans, water, salt"},
				{Name: "Granola Bars", Brand: "Nature Valley", Size: "12 pack", NutritionalInfo: "Whole grain oats",
					DatePurchased: "2025-06-10", ExpirationDate: "2026-01-10", Ingredients: "Oats, honey, sugar", OtherInfo: "Peanut free"},
				{Name: "Soup Cans", Brand: "Campbell's", Size: "10.5oz", NutritionalInfo: "Low sodium",
					DatePurchased: "2025-06-01", ExpirationDate: "2026-06-01", Ingredients: "Chicken, noodles, broth"},
			}},
			{name: "Garage Shelf", description: "Shelf in garage", items: []core.Item{
				{Name: "Pasta", Brand: "PastaCo", Size: "1lb", NutritionalInfo: "Carbs",
					DatePurchased: "2025-05-15", ExpirationDate: "2026-05-15", Ingredients: "Wheat"},
				{Name: "Bottled Water", Brand: "Aquafina", Size: "24 pack", NutritionalInfo: "Water",
					DatePurchased: "2025-05-20", ExpirationDate: "2027-05-20", Ingredients: "Water"},
			}},
		},
	},
	{
		user: core.User{ID: "user1", Email: "user1@example.com", Name: "User One"},
		locations: []seedLocation{
			{name: "Basement Freezer", description: "Freezer in basement", items: []core.Item{
				{Name: "Frozen Pizza", Brand: "PizzaBrand", Size: "12in", NutritionalInfo: "Cheese, carbs",
					DatePurchased: "2025-06-10", ExpirationDate: "2025-12-10", Ingredients: "Flour, cheese, tomato"},
			}},
		},
	},
	{
		user: core.User{ID: "user2", Email: "user2@example.com", Name: "User Two"},
		locations: []seedLocation{
			{name: "Office Cabinet", description: "Cabinet in office", items: []core.Item{
				{Name: "Coffee", Brand: "BrewMaster", Size: "2lb", NutritionalInfo: "Caffeine",
					DatePurchased: "2025-04-20", ExpirationDate: "2026-04-20", Ingredients: "Coffee beans"},
			}},
		},
	},
}

// Seed writes demo users with their locations and items. Users are upserted;
// locations and items are always added, so run it on an empty store.
func Seed(ctx context.Context, st store.Store) (SeedStats, error) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	svc := core.NewService(st)
	var stats SeedStats

	for _, su := range demoData {
		if _, err := svc.EnsureUser(ctx, su.user); err != nil {
			return stats, fmt.Errorf("seed user %s: %w", su.user.ID, err)
		}
		stats.Users++

		inv := svc.For(su.user.ID)
		for _, sl := range su.locations {
			loc, err := inv.CreateLocation(ctx, sl.name, sl.description)
			if err != nil {
				return stats, fmt.Errorf("seed location %q: %w", sl.name, err)
			}
			stats.Locations++

			for _, it := range sl.items {
				it.LocationID = loc.ID
				if _, err := inv.CreateItem(ctx, it); err != nil {
					return stats, fmt.Errorf("seed item %q: %w", it.Name, err)
				}
				stats.Items++
			}
		}
	}
	return stats, nil
}
