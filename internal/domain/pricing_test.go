package domain

import (
	"testing"

	"seatengine/internal/domain/models"
)

func standardPackage() models.Package {
	return models.Package{
		ID:        2,
		Code:      "standard",
		Title:     "Standard Package",
		BasePrice: 30000,
		Options: []models.PackageOption{
			{ID: 201, PackageID: 2, OptionType: models.OptionMeal, Name: "Sri Lankan buffet", Price: 0},
			{ID: 202, PackageID: 2, OptionType: models.OptionMeal, Name: "Western buffet", Price: 500},
			{ID: 205, PackageID: 2, OptionType: models.OptionHotel, Name: "Golden Sands Hotel", Price: 3000},
			{ID: 207, PackageID: 2, OptionType: models.OptionTransport, Name: "SilverLine Luxury Coaches", Price: 0},
		},
	}
}

func mustRange(t *testing.T, start, end string) DateRange {
	t.Helper()
	r, err := ParseDateRange(start, end)
	if err != nil {
		t.Fatalf("parse range: %v", err)
	}
	return r
}

func TestPriceQuoteStandardThreeDays(t *testing.T) {
	sel := models.OptionSelection{MealOptionID: 202, HotelOptionID: 205, TransportOptionID: 207}
	q, err := PriceQuote(standardPackage(), sel, mustRange(t, "2024-06-01", "2024-06-03"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if q.Days != 3 {
		t.Fatalf("expected 3 days, got %d", q.Days)
	}
	if q.PerDayTotal != 33500 {
		t.Fatalf("expected per day 33500, got %d", q.PerDayTotal)
	}
	if q.Total != 100500 {
		t.Fatalf("expected total 100500, got %d", q.Total)
	}
}

func TestPriceQuoteIsDeterministic(t *testing.T) {
	sel := models.OptionSelection{MealOptionID: 202}
	r := mustRange(t, "2024-06-01", "2024-06-10")
	a, err := PriceQuote(standardPackage(), sel, r)
	if err != nil {
		t.Fatalf("first quote: %v", err)
	}
	b, err := PriceQuote(standardPackage(), sel, r)
	if err != nil {
		t.Fatalf("second quote: %v", err)
	}
	if a.Total != b.Total || a.Days != b.Days {
		t.Fatalf("quotes differ: %+v vs %+v", a, b)
	}
}

func TestPriceQuoteSameDayIsOneDay(t *testing.T) {
	q, err := PriceQuote(standardPackage(), models.OptionSelection{}, mustRange(t, "2024-06-01", "2024-06-01"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if q.Days != 1 || q.Total != 30000 {
		t.Fatalf("expected one day at base price, got days=%d total=%d", q.Days, q.Total)
	}
}

func TestPriceQuoteRejectsReversedRange(t *testing.T) {
	_, err := PriceQuote(standardPackage(), models.OptionSelection{}, mustRange(t, "2024-06-03", "2024-06-01"))
	if !IsInvalidDateRange(err) {
		t.Fatalf("expected invalid date range, got %v", err)
	}
	if !IsValidation(err) {
		t.Fatalf("invalid date range should be a validation error, got %T", err)
	}
}

func TestPriceQuoteRejectsOptionOfWrongType(t *testing.T) {
	// 205 is a hotel option; selecting it as a meal must fail.
	_, err := PriceQuote(standardPackage(), models.OptionSelection{MealOptionID: 205}, mustRange(t, "2024-06-01", "2024-06-01"))
	if !IsUnknownOption(err) {
		t.Fatalf("expected unknown option, got %v", err)
	}
}

func TestPriceQuoteDetectsOverflow(t *testing.T) {
	pkg := models.Package{ID: 9, BasePrice: 1 << 62}
	_, err := PriceQuote(pkg, models.OptionSelection{}, mustRange(t, "2024-06-01", "2024-06-03"))
	if !IsValidation(err) {
		t.Fatalf("expected validation error on overflow, got %v", err)
	}
}

func TestRouteFare(t *testing.T) {
	q, err := RouteFare(models.Route{ID: 1, FromLocation: "Colombo", ToLocation: "Kandy", TicketPrice: 1500}, 3)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if q.Total != 4500 {
		t.Fatalf("expected 4500, got %d", q.Total)
	}
}

func TestNormalizeSeats(t *testing.T) {
	got, err := NormalizeSeats([]string{" 12", "07", "40"}, 40)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := []string{"12", "7", "40"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("seat %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	bad := [][]string{
		nil,
		{"0"},
		{"41"},
		{"A1"},
		{"3", "03"},
	}
	for _, in := range bad {
		if _, err := NormalizeSeats(in, 40); !IsValidation(err) {
			t.Fatalf("NormalizeSeats(%v): expected validation error, got %v", in, err)
		}
	}
}

func TestSeatsUnavailableMessage(t *testing.T) {
	err := error(SeatsUnavailableError{BusID: 1, RouteID: 1, Seats: []string{"12", "14"}})
	if err.Error() != "seats unavailable: 12, 14" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if seats := ConflictingSeats(err); len(seats) != 2 {
		t.Fatalf("expected two conflicting seats, got %v", seats)
	}
}
