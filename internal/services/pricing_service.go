package services

import (
	"context"
	"time"

	"seatengine/internal/domain"
	"seatengine/internal/domain/models"
	"seatengine/internal/repositories"
)

// QuoteRequest prices either a package over a date range or, without a
// package, the route fare for Seats seats.
type QuoteRequest struct {
	PackageID int64                  `json:"packageId"`
	Options   models.OptionSelection `json:"options"`
	StartDate string                 `json:"startDate"`
	EndDate   string                 `json:"endDate"`
	RouteID   int64                  `json:"routeId"`
	Seats     int                    `json:"seats"`
}

type PricingService struct {
	Catalog repositories.CatalogStore
	Timeout time.Duration
}

// Quote is the server authoritative price. CreateBooking calls it with the
// same inputs, so a quote and the committed total always agree.
func (s PricingService) Quote(ctx context.Context, req QuoteRequest) (models.Quote, error) {
	ctx, cancel := boundedCtx(ctx, s.Timeout)
	defer cancel()

	if req.PackageID > 0 {
		if req.StartDate == "" || req.EndDate == "" {
			return models.Quote{}, domain.ValidationError{Field: "startDate", Msg: "startDate and endDate are required with a package"}
		}
		r, err := domain.ParseDateRange(req.StartDate, req.EndDate)
		if err != nil {
			return models.Quote{}, err
		}
		// Range first so a reversed range is reported even for unknown packages.
		if _, err := domain.CountDays(r); err != nil {
			return models.Quote{}, err
		}
		pkg, err := s.Catalog.Package(ctx, req.PackageID)
		if err != nil {
			return models.Quote{}, unknownRef("packageId", err)
		}
		if !pkg.Bookable() {
			return models.Quote{}, domain.ValidationError{Field: "packageId", Msg: "package is not bookable"}
		}
		q, err := domain.PriceQuote(pkg, req.Options, r)
		if err != nil {
			return models.Quote{}, err
		}
		q.Seats = req.Seats
		q.RouteID = req.RouteID
		return q, nil
	}

	if req.Options != (models.OptionSelection{}) {
		return models.Quote{}, domain.ValidationError{Field: "packageId", Msg: "options require a package", Err: domain.ErrUnknownOption}
	}
	days := 0
	if req.StartDate != "" || req.EndDate != "" {
		r, err := domain.ParseDateRange(req.StartDate, req.EndDate)
		if err != nil {
			return models.Quote{}, err
		}
		if days, err = domain.CountDays(r); err != nil {
			return models.Quote{}, err
		}
	}
	if req.RouteID <= 0 {
		return models.Quote{}, domain.ValidationError{Field: "routeId", Msg: "routeId or packageId is required"}
	}
	route, err := s.Catalog.Route(ctx, req.RouteID)
	if err != nil {
		return models.Quote{}, unknownRef("routeId", err)
	}
	q, err := domain.RouteFare(route, req.Seats)
	if err != nil {
		return models.Quote{}, err
	}
	if days > 0 {
		q.Days = days
	}
	return q, nil
}

func (s PricingService) Packages(ctx context.Context) ([]models.Package, error) {
	ctx, cancel := boundedCtx(ctx, s.Timeout)
	defer cancel()
	return s.Catalog.Packages(ctx)
}

func (s PricingService) Package(ctx context.Context, id int64) (models.Package, error) {
	ctx, cancel := boundedCtx(ctx, s.Timeout)
	defer cancel()
	return s.Catalog.Package(ctx, id)
}
