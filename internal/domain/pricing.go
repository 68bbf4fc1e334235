package domain

import (
	"fmt"
	"math"
	"time"

	"seatengine/internal/domain/models"
	"seatengine/internal/utils"
)

// DateRange is an inclusive range of calendar dates in UTC.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange parses two YYYY-MM-DD dates.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := utils.ParseDate(start)
	if err != nil {
		return DateRange{}, ValidationError{Field: "startDate", Msg: "must be YYYY-MM-DD", Err: err}
	}
	e, err := utils.ParseDate(end)
	if err != nil {
		return DateRange{}, ValidationError{Field: "endDate", Msg: "must be YYYY-MM-DD", Err: err}
	}
	return DateRange{Start: s, End: e}, nil
}

// CountDays returns the whole days in r plus one. A same-day range is one day.
func CountDays(r DateRange) (int, error) {
	start := truncateDay(r.Start)
	end := truncateDay(r.End)
	if end.Before(start) {
		return 0, ValidationError{Field: "endDate", Msg: "endDate is before startDate", Err: ErrInvalidDateRange}
	}
	hours := end.Sub(start).Hours()
	days := int(math.Ceil(hours/24)) + 1
	if days < 1 {
		days = 1
	}
	return days, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PriceQuote computes (basePrice + selected option prices) * days. It has no
// side effects and is deterministic for identical inputs.
func PriceQuote(pkg models.Package, sel models.OptionSelection, r DateRange) (models.Quote, error) {
	days, err := CountDays(r)
	if err != nil {
		return models.Quote{}, err
	}
	if pkg.BasePrice < 0 {
		return models.Quote{}, InternalError{Msg: fmt.Sprintf("package %d has a negative base price", pkg.ID)}
	}

	q := models.Quote{PackageID: pkg.ID, Days: days}
	perDay := pkg.BasePrice
	q.Lines = append(q.Lines, models.QuoteLine{Label: pkg.Title, Amount: pkg.BasePrice})
	for _, t := range models.OptionTypes {
		id := sel.Selected(t)
		if id == 0 {
			continue
		}
		opt, ok := pkg.Option(t, id)
		if !ok {
			return models.Quote{}, ValidationError{
				Field: string(t) + "OptionId",
				Msg:   fmt.Sprintf("option %d is not a %s option of package %d", id, t, pkg.ID),
				Err:   ErrUnknownOption,
			}
		}
		if opt.Price < 0 {
			return models.Quote{}, InternalError{Msg: fmt.Sprintf("option %d has a negative price", opt.ID)}
		}
		if perDay, err = addChecked(perDay, opt.Price); err != nil {
			return models.Quote{}, err
		}
		q.Lines = append(q.Lines, models.QuoteLine{Label: opt.Name, Amount: opt.Price})
	}

	total, err := mulChecked(perDay, int64(days))
	if err != nil {
		return models.Quote{}, err
	}
	q.PerDayTotal = perDay
	q.Total = total
	return q, nil
}

// RouteFare prices a bus-only booking: ticketPrice per seat.
func RouteFare(route models.Route, seats int) (models.Quote, error) {
	if seats <= 0 {
		return models.Quote{}, ValidationError{Field: "selectedSeats", Msg: "at least one seat is required"}
	}
	if route.TicketPrice < 0 {
		return models.Quote{}, InternalError{Msg: fmt.Sprintf("route %d has a negative ticket price", route.ID)}
	}
	total, err := mulChecked(route.TicketPrice, int64(seats))
	if err != nil {
		return models.Quote{}, err
	}
	return models.Quote{
		RouteID:      route.ID,
		Seats:        seats,
		Days:         1,
		PerSeatPrice: route.TicketPrice,
		Lines: []models.QuoteLine{{
			Label:  fmt.Sprintf("%s - %s x%d", route.FromLocation, route.ToLocation, seats),
			Amount: total,
		}},
		Total: total,
	}, nil
}

func addChecked(a, b int64) (int64, error) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, ValidationError{Field: "totalPrice", Msg: "price overflows"}
	}
	return a + b, nil
}

func mulChecked(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > math.MaxInt64/b {
		return 0, ValidationError{Field: "totalPrice", Msg: "price overflows"}
	}
	return a * b, nil
}
