package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"seatengine/internal/domain"
	"seatengine/internal/domain/models"
	"seatengine/internal/metrics"
	"seatengine/internal/repositories"
	"seatengine/internal/utils"
)

const systemPassenger = "System Occupied"

type CreateBookingInput struct {
	UserID           int64
	BusID            int64
	RouteID          int64
	PassengerName    string
	PassengerEmail   string
	PassengerPhone   string
	SelectedSeats    []string
	NumberOfSeats    int // 0 when the client did not send it
	PackageID        int64
	Options          models.OptionSelection
	StartDate        string
	EndDate          string
	ClientTotalPrice *int64
	Dataset          string
}

type BlockSeatsInput struct {
	BusID   int64
	RouteID int64
	Seats   []string
	Note    string
}

// ClearResult summarizes an administrative clear.
type ClearResult struct {
	Bookings int `json:"cancelledBookings"`
	Seats    int `json:"releasedSeats"`
	Scopes   int `json:"scopes"`
}

// BookingService is the allocator: every occupancy write goes through one
// of its atomic units.
type BookingService struct {
	Inventory     repositories.InventoryStore
	Catalog       repositories.CatalogStore
	Pricing       PricingService
	Timeout       time.Duration
	InitialStatus models.BookingStatus
	Now           func() time.Time
	Reference     func() string
}

func (s BookingService) pricing() PricingService {
	p := s.Pricing
	if p.Catalog == nil {
		p.Catalog = s.Catalog
	}
	if p.Timeout == 0 {
		p.Timeout = s.Timeout
	}
	return p
}

func (s BookingService) initialStatus() models.BookingStatus {
	if s.InitialStatus == models.StatusPendingPayment {
		return models.StatusPendingPayment
	}
	return models.StatusConfirmed
}

func (s BookingService) reference() string {
	if s.Reference != nil {
		return s.Reference()
	}
	return NewReference()
}

func (s BookingService) atomic(ctx context.Context, op string, scope models.SeatScope, fn func(ctx context.Context, l repositories.SeatLedger) error) error {
	uctx, cancel := detachedCtx(ctx, s.Timeout)
	defer cancel()
	start := time.Now()
	err := s.Inventory.Atomic(uctx, scope, fn)
	metrics.ObserveUnit(op, start)
	return err
}

// CreateBooking allocates the requested seats all-or-nothing. The caller
// must be the booking's user or an admin.
func (s BookingService) CreateBooking(ctx context.Context, caller domain.RequestContext, in CreateBookingInput) (models.Booking, error) {
	if !caller.CanAccessUser(in.UserID) {
		return models.Booking{}, domain.UnauthorizedError{Msg: "cannot book on behalf of another user"}
	}
	in.Dataset = strings.TrimSpace(in.Dataset)
	if in.Dataset != models.DatasetLive && !caller.IsAdmin() {
		return models.Booking{}, domain.UnauthorizedError{Msg: "named datasets are reserved for admins"}
	}
	if err := validatePassenger(in); err != nil {
		metrics.BookingAttempts.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return models.Booking{}, err
	}
	return s.createBooking(ctx, in, true)
}

// BlockSeats occupies seats with a zero priced booking in the system dataset.
func (s BookingService) BlockSeats(ctx context.Context, caller domain.RequestContext, in BlockSeatsInput) (models.Booking, error) {
	if !caller.IsAdmin() {
		return models.Booking{}, domain.UnauthorizedError{Msg: "admin only"}
	}
	name := systemPassenger
	if note := utils.NormalizeSpace(in.Note); note != "" {
		name = systemPassenger + " (" + note + ")"
	}
	return s.createBooking(ctx, CreateBookingInput{
		UserID:        int64(caller.UserID),
		BusID:         in.BusID,
		RouteID:       in.RouteID,
		PassengerName: name,
		SelectedSeats: in.Seats,
		Dataset:       models.DatasetSystem,
	}, false)
}

func validatePassenger(in CreateBookingInput) error {
	if in.UserID <= 0 {
		return domain.ValidationError{Field: "userId", Msg: "userId is required"}
	}
	if strings.TrimSpace(in.PassengerName) == "" {
		return domain.ValidationError{Field: "passengerName", Msg: "passengerName is required"}
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(in.PassengerEmail)); err != nil {
		return domain.ValidationError{Field: "passengerEmail", Msg: "passengerEmail is not a valid address", Err: err}
	}
	if strings.TrimSpace(in.PassengerPhone) == "" {
		return domain.ValidationError{Field: "passengerPhone", Msg: "passengerPhone is required"}
	}
	return nil
}

func (s BookingService) createBooking(ctx context.Context, in CreateBookingInput, priced bool) (models.Booking, error) {
	b, err := s.prepare(ctx, in, priced)
	if err != nil {
		metrics.BookingAttempts.WithLabelValues(outcomeOf(err)).Inc()
		return models.Booking{}, err
	}

	err = s.atomic(ctx, "create", b.Scope(), func(ctx context.Context, l repositories.SeatLedger) error {
		occupied, err := l.Occupied(ctx)
		if err != nil {
			return err
		}
		if conflicts := intersect(b.SelectedSeats, occupied); len(conflicts) > 0 {
			return domain.SeatsUnavailableError{BusID: b.BusID, RouteID: b.RouteID, Seats: conflicts}
		}
		if err := l.InsertBooking(ctx, &b); err != nil {
			return err
		}
		return l.MarkOccupied(ctx, b.ID, b.SelectedSeats)
	})
	metrics.BookingAttempts.WithLabelValues(outcomeOf(err)).Inc()
	if err != nil {
		utils.LogEventCtx(ctx, "booking", "create", "booking rejected",
			zap.Int64("bus_id", b.BusID), zap.Int64("route_id", b.RouteID),
			zap.Strings("seats", b.SelectedSeats), zap.Error(err))
		return models.Booking{}, err
	}

	fields := []zap.Field{
		zap.Int64("booking_id", b.ID), zap.String("reference", b.Reference),
		zap.Int64("bus_id", b.BusID), zap.Int64("route_id", b.RouteID),
		zap.Strings("seats", b.SelectedSeats), zap.Int64("total_price", b.TotalPrice),
	}
	if b.ClientTotalPrice != nil && *b.ClientTotalPrice != b.TotalPrice {
		fields = append(fields, zap.Int64("client_total_price", *b.ClientTotalPrice))
		utils.LogEventCtx(ctx, "booking", "create", "client total differs from server total", fields...)
	}
	utils.LogEventCtx(ctx, "booking", "create", "booking created", fields...)
	return b, nil
}

// prepare validates the request and computes the price without touching
// occupancy.
func (s BookingService) prepare(ctx context.Context, in CreateBookingInput, priced bool) (models.Booking, error) {
	if in.BusID <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "busId", Msg: "busId is required"}
	}
	if in.RouteID <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "routeId", Msg: "routeId is required"}
	}
	rctx, cancel := boundedCtx(ctx, s.Timeout)
	defer cancel()

	bus, err := s.Catalog.Bus(rctx, in.BusID)
	if err != nil {
		return models.Booking{}, unknownRef("busId", err)
	}
	if _, err := s.Catalog.Route(rctx, in.RouteID); err != nil {
		return models.Booking{}, unknownRef("routeId", err)
	}
	seats, err := domain.NormalizeSeats(in.SelectedSeats, bus.SeatingCapacity)
	if err != nil {
		return models.Booking{}, err
	}
	if in.NumberOfSeats != 0 && in.NumberOfSeats != len(seats) {
		return models.Booking{}, domain.ValidationError{
			Field: "numberOfSeats",
			Msg:   fmt.Sprintf("numberOfSeats is %d but %d seats were selected", in.NumberOfSeats, len(seats)),
		}
	}

	now := nowFn(s.Now)
	b := models.Booking{
		Reference:        s.reference(),
		UserID:           in.UserID,
		BusID:            in.BusID,
		RouteID:          in.RouteID,
		PassengerName:    utils.NormalizeSpace(in.PassengerName),
		PassengerEmail:   strings.TrimSpace(in.PassengerEmail),
		PassengerPhone:   strings.TrimSpace(in.PassengerPhone),
		SelectedSeats:    seats,
		NumberOfSeats:    len(seats),
		ClientTotalPrice: in.ClientTotalPrice,
		Status:           s.initialStatus(),
		Dataset:          in.Dataset,
		BookingDate:      now,
		UpdatedAt:        now,
	}
	if !priced {
		b.Status = models.StatusConfirmed
		return b, nil
	}

	q, err := s.pricing().Quote(ctx, QuoteRequest{
		PackageID: in.PackageID,
		Options:   in.Options,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		RouteID:   in.RouteID,
		Seats:     len(seats),
	})
	if err != nil {
		return models.Booking{}, err
	}
	b.PackageID = in.PackageID
	b.Options = in.Options
	b.StartDate = strings.TrimSpace(in.StartDate)
	b.EndDate = strings.TrimSpace(in.EndDate)
	if b.StartDate != "" {
		b.NumberOfDays = q.Days
	}
	b.TotalPrice = q.Total
	return b, nil
}

// CancelBooking sets CANCELLED and releases the seats under the scope lock.
func (s BookingService) CancelBooking(ctx context.Context, caller domain.RequestContext, id int64) (models.Booking, error) {
	if id <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "id", Msg: "invalid booking id"}
	}
	rctx, cancel := boundedCtx(ctx, s.Timeout)
	existing, err := s.Inventory.Booking(rctx, id)
	cancel()
	if err != nil {
		return models.Booking{}, err
	}
	if !caller.CanAccessUser(existing.UserID) {
		return models.Booking{}, domain.UnauthorizedError{Msg: "booking belongs to another user"}
	}

	var out models.Booking
	err = s.atomic(ctx, "cancel", existing.Scope(), func(ctx context.Context, l repositories.SeatLedger) error {
		cur, err := l.BookingForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if cur.Status == models.StatusCancelled {
			return domain.ConflictError{Resource: "booking", Msg: "already cancelled"}
		}
		if !cur.Status.CanTransition(models.StatusCancelled) {
			return domain.ConflictError{Resource: "booking", Msg: fmt.Sprintf("cannot cancel a %s booking", cur.Status)}
		}
		now := nowFn(s.Now)
		if err := l.SetStatus(ctx, id, models.StatusCancelled, now); err != nil {
			return err
		}
		if err := l.Release(ctx, cur.SelectedSeats); err != nil {
			return err
		}
		cur.Status = models.StatusCancelled
		cur.UpdatedAt = now
		out = cur
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}
	metrics.BookingsCancelled.Inc()
	metrics.SeatsReleased.Add(float64(len(out.SelectedSeats)))
	utils.LogEventCtx(ctx, "booking", "cancel", "booking cancelled",
		zap.Int64("booking_id", out.ID), zap.Strings("seats", out.SelectedSeats))
	return out, nil
}

// UpdateStatus applies an admin or payment driven transition. CANCELLED is
// routed through CancelBooking so seats are released.
func (s BookingService) UpdateStatus(ctx context.Context, caller domain.RequestContext, id int64, status models.BookingStatus) (models.Booking, error) {
	if !caller.IsAdmin() {
		return models.Booking{}, domain.UnauthorizedError{Msg: "admin only"}
	}
	if _, ok := models.ParseBookingStatus(string(status)); !ok {
		return models.Booking{}, domain.ValidationError{Field: "bookingStatus", Msg: fmt.Sprintf("unknown status %q", status)}
	}
	if status == models.StatusCancelled {
		return s.CancelBooking(ctx, caller, id)
	}

	rctx, cancel := boundedCtx(ctx, s.Timeout)
	existing, err := s.Inventory.Booking(rctx, id)
	cancel()
	if err != nil {
		return models.Booking{}, err
	}

	var out models.Booking
	err = s.atomic(ctx, "status", existing.Scope(), func(ctx context.Context, l repositories.SeatLedger) error {
		cur, err := l.BookingForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !cur.Status.CanTransition(status) {
			return domain.ConflictError{Resource: "booking", Msg: fmt.Sprintf("cannot move from %s to %s", cur.Status, status)}
		}
		now := nowFn(s.Now)
		if err := l.SetStatus(ctx, id, status, now); err != nil {
			return err
		}
		cur.Status = status
		cur.UpdatedAt = now
		out = cur
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}
	utils.LogEventCtx(ctx, "booking", "update_status", "booking status updated",
		zap.Int64("booking_id", id), zap.String("status", string(status)))
	return out, nil
}

// ClearOccupied cancels the active non-live bookings (system blocks and test
// data) on one (bus, route) and releases their seats. Live passenger bookings
// and other scopes are untouched.
func (s BookingService) ClearOccupied(ctx context.Context, caller domain.RequestContext, busID, routeID int64) (ClearResult, error) {
	if !caller.IsAdmin() {
		return ClearResult{}, domain.UnauthorizedError{Msg: "admin only"}
	}
	if busID <= 0 || routeID <= 0 {
		return ClearResult{}, domain.ValidationError{Field: "busId", Msg: "busId and routeId are required"}
	}
	scope := models.SeatScope{BusID: busID, RouteID: routeID}
	res, err := s.cancelInScope(ctx, scope, func(b models.Booking) bool { return b.Dataset != models.DatasetLive })
	if err != nil {
		return ClearResult{}, err
	}
	res.Scopes = 1
	utils.LogEventCtx(ctx, "booking", "clear_occupied", "occupied seats cleared",
		zap.Int64("bus_id", busID), zap.Int64("route_id", routeID),
		zap.Int("bookings", res.Bookings), zap.Int("seats", res.Seats))
	return res, nil
}

// ClearAllTestBookings cancels the active bookings of one named dataset,
// one scope per atomic unit. Live bookings can never be targeted.
func (s BookingService) ClearAllTestBookings(ctx context.Context, caller domain.RequestContext, dataset string) (ClearResult, error) {
	if !caller.IsAdmin() {
		return ClearResult{}, domain.UnauthorizedError{Msg: "admin only"}
	}
	dataset = strings.TrimSpace(dataset)
	if dataset == models.DatasetLive {
		return ClearResult{}, domain.ValidationError{Field: "dataset", Msg: "a named dataset is required"}
	}

	rctx, cancel := boundedCtx(ctx, s.Timeout)
	scopes, err := s.Inventory.DatasetScopes(rctx, dataset)
	cancel()
	if err != nil {
		return ClearResult{}, err
	}

	var total ClearResult
	for _, scope := range scopes {
		res, err := s.cancelInScope(ctx, scope, func(b models.Booking) bool { return b.Dataset == dataset })
		if err != nil {
			return total, err
		}
		total.Bookings += res.Bookings
		total.Seats += res.Seats
		total.Scopes++
	}
	utils.LogEventCtx(ctx, "booking", "clear_dataset", "dataset bookings cleared",
		zap.String("dataset", dataset), zap.Int("scopes", total.Scopes),
		zap.Int("bookings", total.Bookings), zap.Int("seats", total.Seats))
	return total, nil
}

func (s BookingService) cancelInScope(ctx context.Context, scope models.SeatScope, match func(models.Booking) bool) (ClearResult, error) {
	var res ClearResult
	err := s.atomic(ctx, "clear", scope, func(ctx context.Context, l repositories.SeatLedger) error {
		res = ClearResult{}
		active, err := l.ActiveBookings(ctx)
		if err != nil {
			return err
		}
		now := nowFn(s.Now)
		for _, b := range active {
			if !match(b) {
				continue
			}
			if err := l.SetStatus(ctx, b.ID, models.StatusCancelled, now); err != nil {
				return err
			}
			if err := l.Release(ctx, b.SelectedSeats); err != nil {
				return err
			}
			res.Bookings++
			res.Seats += len(b.SelectedSeats)
		}
		return nil
	})
	if err != nil {
		return ClearResult{}, err
	}
	metrics.BookingsCancelled.Add(float64(res.Bookings))
	metrics.SeatsReleased.Add(float64(res.Seats))
	return res, nil
}

// intersect returns the requested seats that are occupied, in numeric order.
func intersect(requested, occupied []string) []string {
	taken := make(map[string]bool, len(occupied))
	for _, s := range occupied {
		taken[s] = true
	}
	out := []string{}
	for _, s := range requested {
		if taken[s] {
			out = append(out, s)
		}
	}
	models.SortSeats(out)
	return out
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeCreated
	case domain.IsSeatsUnavailable(err):
		return metrics.OutcomeConflict
	case domain.IsValidation(err), domain.IsNotFound(err):
		return metrics.OutcomeInvalid
	case domain.IsStorageUnavailable(err):
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeError
	}
}
