package repositories

import (
	"database/sql"
	"encoding/json"
	"strings"

	"seatengine/internal/domain/models"
	"seatengine/internal/utils"
)

const bookingSelect = `
	SELECT
		id, reference, user_id, bus_id, route_id,
		passenger_name, passenger_email, passenger_phone,
		selected_seats, number_of_seats,
		package_id, meal_option_id, hotel_option_id, transport_option_id,
		start_date, end_date, number_of_days,
		total_price, client_total_price, booking_status, dataset,
		booking_date, updated_at
	FROM bookings`

// BookingColumns matches the column order of bookingSelect, for tests.
var BookingColumns = []string{
	"id", "reference", "user_id", "bus_id", "route_id",
	"passenger_name", "passenger_email", "passenger_phone",
	"selected_seats", "number_of_seats",
	"package_id", "meal_option_id", "hotel_option_id", "transport_option_id",
	"start_date", "end_date", "number_of_days",
	"total_price", "client_total_price", "booking_status", "dataset",
	"booking_date", "updated_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (models.Booking, error) {
	var (
		b                      models.Booking
		seats, status          string
		pkg, meal, hotel, trns sql.NullInt64
		start, end             sql.NullTime
		clientTotal            sql.NullInt64
	)
	if err := row.Scan(
		&b.ID, &b.Reference, &b.UserID, &b.BusID, &b.RouteID,
		&b.PassengerName, &b.PassengerEmail, &b.PassengerPhone,
		&seats, &b.NumberOfSeats,
		&pkg, &meal, &hotel, &trns,
		&start, &end, &b.NumberOfDays,
		&b.TotalPrice, &clientTotal, &status, &b.Dataset,
		&b.BookingDate, &b.UpdatedAt,
	); err != nil {
		return models.Booking{}, err
	}
	b.SelectedSeats = decodeSeats(seats)
	b.PackageID = pkg.Int64
	b.Options = models.OptionSelection{
		MealOptionID:      meal.Int64,
		HotelOptionID:     hotel.Int64,
		TransportOptionID: trns.Int64,
	}
	if start.Valid {
		b.StartDate = utils.FormatDate(start.Time)
	}
	if end.Valid {
		b.EndDate = utils.FormatDate(end.Time)
	}
	if clientTotal.Valid {
		v := clientTotal.Int64
		b.ClientTotalPrice = &v
	}
	b.Status = models.BookingStatus(strings.ToUpper(strings.TrimSpace(status)))
	b.BookingDate = b.BookingDate.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return b, nil
}

func scanBookings(rows *sql.Rows) ([]models.Booking, error) {
	defer rows.Close()
	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Seats are stored as a JSON array, e.g. ["12","14"].
func encodeSeats(seats []string) (string, error) {
	raw, err := json.Marshal(seats)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// decodeSeats also accepts the legacy comma separated form.
func decodeSeats(raw string) []string {
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		return out
	}
	return utils.SplitSeatList(raw)
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
