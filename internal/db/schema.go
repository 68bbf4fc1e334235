package db

import (
	"context"
	"fmt"
)

// Tables lists every table the engine owns, in creation order.
var Tables = []string{
	"buses",
	"routes",
	"packages",
	"package_options",
	"bookings",
	"seat_inventories",
	"seat_occupancy",
}

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS buses (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		bus_name VARCHAR(120) NOT NULL,
		registration_number VARCHAR(60) NOT NULL DEFAULT '',
		seating_capacity INT NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS routes (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		from_location VARCHAR(120) NOT NULL,
		to_location VARCHAR(120) NOT NULL,
		ticket_price BIGINT NOT NULL DEFAULT 0
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS packages (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		code VARCHAR(40) NOT NULL,
		title VARCHAR(160) NOT NULL,
		description TEXT,
		base_price BIGINT NOT NULL,
		UNIQUE KEY uq_packages_code (code)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS package_options (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		package_id BIGINT NOT NULL,
		option_type VARCHAR(20) NOT NULL,
		name VARCHAR(160) NOT NULL,
		price BIGINT NOT NULL DEFAULT 0,
		KEY idx_package_options_package (package_id, option_type)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		reference VARCHAR(20) NOT NULL,
		user_id BIGINT NOT NULL,
		bus_id BIGINT NOT NULL,
		route_id BIGINT NOT NULL,
		passenger_name VARCHAR(160) NOT NULL,
		passenger_email VARCHAR(160) NOT NULL DEFAULT '',
		passenger_phone VARCHAR(40) NOT NULL DEFAULT '',
		selected_seats VARCHAR(1000) NOT NULL,
		number_of_seats INT NOT NULL,
		package_id BIGINT NULL,
		meal_option_id BIGINT NULL,
		hotel_option_id BIGINT NULL,
		transport_option_id BIGINT NULL,
		start_date DATE NULL,
		end_date DATE NULL,
		number_of_days INT NOT NULL DEFAULT 0,
		total_price BIGINT NOT NULL,
		client_total_price BIGINT NULL,
		booking_status VARCHAR(20) NOT NULL,
		dataset VARCHAR(40) NOT NULL DEFAULT '',
		booking_date DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_bookings_reference (reference),
		KEY idx_bookings_user (user_id, booking_date),
		KEY idx_bookings_scope (bus_id, route_id, booking_status),
		KEY idx_bookings_dataset (dataset, booking_status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS seat_inventories (
		bus_id BIGINT NOT NULL,
		route_id BIGINT NOT NULL,
		version BIGINT NOT NULL DEFAULT 0,
		updated_at DATETIME(6) NOT NULL,
		PRIMARY KEY (bus_id, route_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS seat_occupancy (
		bus_id BIGINT NOT NULL,
		route_id BIGINT NOT NULL,
		seat_number VARCHAR(8) NOT NULL,
		booking_id BIGINT NOT NULL,
		occupied_at DATETIME(6) NOT NULL,
		PRIMARY KEY (bus_id, route_id, seat_number),
		KEY idx_seat_occupancy_booking (booking_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates missing tables. Existing tables are left untouched.
func EnsureSchema(ctx context.Context, q Execer) error {
	for i, stmt := range ddl {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create %s: %w", Tables[i], err)
		}
	}
	return nil
}

// MissingTables returns the engine tables not present in the current schema.
func MissingTables(ctx context.Context, q QueryRower) []string {
	missing := []string{}
	for _, t := range Tables {
		if !HasTable(ctx, q, t) {
			missing = append(missing, t)
		}
	}
	return missing
}

// RequiredColumns are columns added after the first schema. A table created
// by an older deployment survives EnsureSchema without them.
var RequiredColumns = [][2]string{
	{"bookings", "dataset"},
	{"bookings", "client_total_price"},
	{"seat_inventories", "version"},
	{"seat_occupancy", "booking_id"},
}

// MissingColumns returns "table.column" for every required column not present.
func MissingColumns(ctx context.Context, q QueryRower) []string {
	missing := []string{}
	for _, tc := range RequiredColumns {
		if !HasColumn(ctx, q, tc[0], tc[1]) {
			missing = append(missing, tc[0]+"."+tc[1])
		}
	}
	return missing
}
