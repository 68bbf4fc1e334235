package services

import (
	"context"
	"time"

	"seatengine/internal/domain"
	"seatengine/internal/domain/models"
	"seatengine/internal/repositories"
)

type InventoryService struct {
	Inventory repositories.InventoryStore
	Catalog   repositories.CatalogStore
	Timeout   time.Duration
}

// GetStatus is advisory. CreateBooking re-reads occupancy under the lock.
func (s InventoryService) GetStatus(ctx context.Context, busID, routeID int64) (models.SeatStatus, error) {
	if busID <= 0 || routeID <= 0 {
		return models.SeatStatus{}, domain.ValidationError{Field: "busId", Msg: "busId and routeId are required"}
	}
	ctx, cancel := boundedCtx(ctx, s.Timeout)
	defer cancel()

	bus, err := s.Catalog.Bus(ctx, busID)
	if err != nil {
		return models.SeatStatus{}, err
	}
	if _, err := s.Catalog.Route(ctx, routeID); err != nil {
		return models.SeatStatus{}, err
	}
	scope := models.SeatScope{BusID: busID, RouteID: routeID}
	occupied, err := s.Inventory.OccupiedSeats(ctx, scope)
	if err != nil {
		return models.SeatStatus{}, err
	}
	return models.NewSeatStatus(scope, bus.SeatingCapacity, occupied), nil
}
