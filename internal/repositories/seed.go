package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"seatengine/internal/domain/models"
)

// DemoCatalog is the demo data loaded when SEED_DEMO_DATA=true.
type DemoCatalog struct {
	Buses    []models.Bus
	Routes   []models.Route
	Packages []models.Package
}

func demoPackage(id int64, code, title, desc string, base int64, meals, hotels, transports [][2]any) models.Package {
	p := models.Package{ID: id, Code: code, Title: title, Description: desc, BasePrice: base}
	next := id * 100
	add := func(t models.OptionType, list [][2]any) {
		for _, o := range list {
			next++
			p.Options = append(p.Options, models.PackageOption{
				ID:         next,
				PackageID:  id,
				OptionType: t,
				Name:       o[0].(string),
				Price:      int64(o[1].(int)),
			})
		}
	}
	add(models.OptionMeal, meals)
	add(models.OptionHotel, hotels)
	add(models.OptionTransport, transports)
	return p
}

// Demo returns buses 1 and 2, two routes and the basic/standard/premium
// packages. Option ids are packageID*100 + n in meal, hotel, transport order.
func Demo() DemoCatalog {
	return DemoCatalog{
		Buses: []models.Bus{
			{ID: 1, Name: "Highway Express 01", RegistrationNumber: "NB-4521", SeatingCapacity: 40},
			{ID: 2, Name: "Coastal Liner 02", RegistrationNumber: "WP-7788", SeatingCapacity: 45},
		},
		Routes: []models.Route{
			{ID: 1, FromLocation: "Colombo", ToLocation: "Kandy", TicketPrice: 1500},
			{ID: 2, FromLocation: "Colombo", ToLocation: "Galle", TicketPrice: 1200},
		},
		Packages: []models.Package{
			demoPackage(1, "basic", "Basic Package (Budget Friendly)", "Affordable travel with essential comforts.", 10000,
				[][2]any{{"Continental light breakfast", 0}, {"Vegetarian Sri Lankan", 200}, {"Simple rice & curry set", 300}},
				[][2]any{{"Lake View Inn", 0}, {"City Comfort Lodge", 1500}, {"Green Palm Guesthouse", 2000}},
				[][2]any{{"Sunshine Express", 0}, {"GreenLine Coaches", 1000}, {"CityRide Travels", 1500}},
			),
			demoPackage(2, "standard", "Standard Package (Mid-Range Comfort)", "Comfortable hotels, buffet meals and air conditioned coaches.", 30000,
				[][2]any{{"Sri Lankan buffet", 0}, {"Western buffet", 500}, {"Healthy choice", 300}},
				[][2]any{{"Ocean Breeze Resort", 0}, {"Golden Sands Hotel", 3000}, {"Mountain View Retreat", 5000}},
				[][2]any{{"SilverLine Luxury Coaches", 0}, {"BlueWave Travels", 2000}, {"Golden Star Transport", 3000}},
			),
			demoPackage(3, "premium", "Premium Package (Luxury Experience)", "Five star stays, gourmet dining and luxury coaches.", 50000,
				[][2]any{{"International gourmet", 0}, {"Vegan/organic", 800}, {"Premium Sri Lankan fusion", 1000}},
				[][2]any{{"Grand Royal Palace Hotel", 0}, {"Sapphire Bay Resort & Spa", 8000}, {"The Imperial Heights", 15000}},
				[][2]any{{"Royal Voyager Coaches", 0}, {"Platinum Wheels", 3000}, {"DiamondLine Tours", 5000}},
			),
		},
	}
}

// SeedMemory loads d into the catalog.
func SeedMemory(c *MemoryCatalog, d DemoCatalog) {
	for _, b := range d.Buses {
		c.PutBus(b)
	}
	for _, r := range d.Routes {
		c.PutRoute(r)
	}
	for _, p := range d.Packages {
		c.PutPackage(p)
	}
}

// SeedSQL inserts d with INSERT IGNORE so existing rows are kept.
func SeedSQL(ctx context.Context, db *sql.DB, d DemoCatalog) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	for _, b := range d.Buses {
		if _, err := tx.ExecContext(ctx, `INSERT IGNORE INTO buses (id, bus_name, registration_number, seating_capacity) VALUES (?, ?, ?, ?)`,
			b.ID, b.Name, b.RegistrationNumber, b.SeatingCapacity); err != nil {
			return fmt.Errorf("seed bus %d: %w", b.ID, err)
		}
	}
	for _, r := range d.Routes {
		if _, err := tx.ExecContext(ctx, `INSERT IGNORE INTO routes (id, from_location, to_location, ticket_price) VALUES (?, ?, ?, ?)`,
			r.ID, r.FromLocation, r.ToLocation, r.TicketPrice); err != nil {
			return fmt.Errorf("seed route %d: %w", r.ID, err)
		}
	}
	for _, p := range d.Packages {
		if _, err := tx.ExecContext(ctx, `INSERT IGNORE INTO packages (id, code, title, description, base_price) VALUES (?, ?, ?, ?, ?)`,
			p.ID, p.Code, p.Title, p.Description, p.BasePrice); err != nil {
			return fmt.Errorf("seed package %s: %w", p.Code, err)
		}
		for _, o := range p.Options {
			if _, err := tx.ExecContext(ctx, `INSERT IGNORE INTO package_options (id, package_id, option_type, name, price) VALUES (?, ?, ?, ?, ?)`,
				o.ID, o.PackageID, string(o.OptionType), o.Name, o.Price); err != nil {
				return fmt.Errorf("seed option %d: %w", o.ID, err)
			}
		}
	}
	return tx.Commit()
}
