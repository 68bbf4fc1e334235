package repositories

import (
	"context"
	"time"

	"seatengine/internal/domain/models"
)

// SeatLedger is the only way to mutate occupancy. It is valid only inside
// the callback passed to InventoryStore.Atomic and is bound to one scope.
type SeatLedger interface {
	Scope() models.SeatScope
	// Occupied re-reads occupancy under the scope lock.
	Occupied(ctx context.Context) ([]string, error)
	// MarkOccupied is a no-op for seats already occupied.
	MarkOccupied(ctx context.Context, bookingID int64, seats []string) error
	// Release is a no-op for seats already available.
	Release(ctx context.Context, seats []string) error
	// InsertBooking assigns b.ID.
	InsertBooking(ctx context.Context, b *models.Booking) error
	BookingForUpdate(ctx context.Context, id int64) (models.Booking, error)
	SetStatus(ctx context.Context, id int64, status models.BookingStatus, at time.Time) error
	// ActiveBookings lists non-cancelled, non-completed bookings in the scope.
	ActiveBookings(ctx context.Context) ([]models.Booking, error)
}

// InventoryStore is the authoritative (bus, route) -> occupancy store.
type InventoryStore interface {
	// OccupiedSeats is an advisory snapshot; it takes no scope lock.
	OccupiedSeats(ctx context.Context, scope models.SeatScope) ([]string, error)
	// Atomic runs fn under mutual exclusion for scope. Everything fn wrote is
	// discarded when fn or the commit fails.
	Atomic(ctx context.Context, scope models.SeatScope, fn func(ctx context.Context, l SeatLedger) error) error
	Booking(ctx context.Context, id int64) (models.Booking, error)
	// BookingsByUser is ordered newest first (bookingDate DESC, id DESC).
	BookingsByUser(ctx context.Context, userID int64) ([]models.Booking, error)
	// Bookings lists every booking matching f, newest first.
	Bookings(ctx context.Context, f BookingFilter) ([]models.Booking, error)
	// DatasetScopes lists scopes holding active bookings of the dataset.
	DatasetScopes(ctx context.Context, dataset string) ([]models.SeatScope, error)
}

// BookingFilter narrows an operator listing. Zero fields match anything.
type BookingFilter struct {
	BusID   int64
	RouteID int64
	From    time.Time // bookingDate >= From
	To      time.Time // bookingDate < To
	Limit   int
}

func (f BookingFilter) Match(b models.Booking) bool {
	switch {
	case f.BusID > 0 && b.BusID != f.BusID:
		return false
	case f.RouteID > 0 && b.RouteID != f.RouteID:
		return false
	case !f.From.IsZero() && b.BookingDate.Before(f.From):
		return false
	case !f.To.IsZero() && !b.BookingDate.Before(f.To):
		return false
	}
	return true
}

// CatalogStore serves admin configured, read-only catalog data.
type CatalogStore interface {
	Bus(ctx context.Context, id int64) (models.Bus, error)
	Route(ctx context.Context, id int64) (models.Route, error)
	Package(ctx context.Context, id int64) (models.Package, error)
	Packages(ctx context.Context) ([]models.Package, error)
}
