package services

import (
	"context"
	"time"

	"seatengine/internal/domain"
	"seatengine/internal/domain/models"
	"seatengine/internal/repositories"
)

// QueryService is the read side. It never touches occupancy.
type QueryService struct {
	Inventory repositories.InventoryStore
	// Catalog, when set, makes ListByScope reject unknown buses and routes.
	Catalog repositories.CatalogStore
	Timeout time.Duration
	Now     func() time.Time
}

const (
	defaultRecent = 20
	maxRecent     = 200
)

// ListBookings returns the user's bookings newest first
// (bookingDate DESC, then id DESC).
func (s QueryService) ListBookings(ctx context.Context, caller domain.RequestContext, userID int64) ([]models.Booking, error) {
	if userID <= 0 {
		return nil, domain.ValidationError{Field: "userId", Msg: "invalid user id"}
	}
	if !caller.CanAccessUser(userID) {
		return nil, domain.UnauthorizedError{Msg: "cannot list another user's bookings"}
	}
	ctx, cancel := boundedCtx(ctx, s.Timeout)
	defer cancel()
	return s.Inventory.BookingsByUser(ctx, userID)
}

func (s QueryService) GetBooking(ctx context.Context, caller domain.RequestContext, id int64) (models.Booking, error) {
	if id <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "id", Msg: "invalid booking id"}
	}
	ctx, cancel := boundedCtx(ctx, s.Timeout)
	defer cancel()
	b, err := s.Inventory.Booking(ctx, id)
	if err != nil {
		return models.Booking{}, err
	}
	if !caller.CanAccessUser(b.UserID) {
		return models.Booking{}, domain.UnauthorizedError{Msg: "booking belongs to another user"}
	}
	return b, nil
}

// ListAll is the operator view of every booking, newest first.
func (s QueryService) ListAll(ctx context.Context, caller domain.RequestContext) ([]models.Booking, error) {
	return s.adminList(ctx, caller, repositories.BookingFilter{})
}

// ListByScope filters by bus, route or both. Zero ids match anything but at
// least one must be set.
func (s QueryService) ListByScope(ctx context.Context, caller domain.RequestContext, busID, routeID int64) ([]models.Booking, error) {
	if busID < 0 {
		return nil, domain.ValidationError{Field: "busId", Msg: "invalid bus id"}
	}
	if routeID < 0 {
		return nil, domain.ValidationError{Field: "routeId", Msg: "invalid route id"}
	}
	if busID == 0 && routeID == 0 {
		return nil, domain.ValidationError{Field: "busId", Msg: "a bus or route id is required"}
	}
	if !caller.IsAdmin() {
		return nil, domain.UnauthorizedError{Msg: "admin only"}
	}
	ctx, cancel := boundedCtx(ctx, s.Timeout)
	defer cancel()
	if s.Catalog != nil {
		if busID > 0 {
			if _, err := s.Catalog.Bus(ctx, busID); err != nil {
				return nil, err
			}
		}
		if routeID > 0 {
			if _, err := s.Catalog.Route(ctx, routeID); err != nil {
				return nil, err
			}
		}
	}
	return s.Inventory.Bookings(ctx, repositories.BookingFilter{BusID: busID, RouteID: routeID})
}

// Recent returns the newest limit bookings. limit <= 0 picks the default.
func (s QueryService) Recent(ctx context.Context, caller domain.RequestContext, limit int) ([]models.Booking, error) {
	if limit <= 0 {
		limit = defaultRecent
	}
	if limit > maxRecent {
		limit = maxRecent
	}
	return s.adminList(ctx, caller, repositories.BookingFilter{Limit: limit})
}

// Today lists bookings made since UTC midnight.
func (s QueryService) Today(ctx context.Context, caller domain.RequestContext) ([]models.Booking, error) {
	start := nowFn(s.Now).UTC().Truncate(24 * time.Hour)
	return s.adminList(ctx, caller, repositories.BookingFilter{From: start, To: start.Add(24 * time.Hour)})
}

func (s QueryService) adminList(ctx context.Context, caller domain.RequestContext, f repositories.BookingFilter) ([]models.Booking, error) {
	if !caller.IsAdmin() {
		return nil, domain.UnauthorizedError{Msg: "admin only"}
	}
	ctx, cancel := boundedCtx(ctx, s.Timeout)
	defer cancel()
	return s.Inventory.Bookings(ctx, f)
}
