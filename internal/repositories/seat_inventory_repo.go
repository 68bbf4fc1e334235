package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	intconfig "seatengine/internal/config"
	intdb "seatengine/internal/db"
	"seatengine/internal/domain"
	"seatengine/internal/domain/models"
	"seatengine/internal/utils"
)

// InventoryRepo is the MySQL InventoryStore. The atomic unit is one
// READ COMMITTED transaction that first locks the scope row in
// seat_inventories, so concurrent units on the same (bus, route) serialize
// there and never gap-lock missing occupancy rows.
type InventoryRepo struct {
	DB  *sql.DB
	Now func() time.Time
}

func (r InventoryRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r InventoryRepo) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return utils.NowUTC()
}

func (r InventoryRepo) OccupiedSeats(ctx context.Context, scope models.SeatScope) ([]string, error) {
	db := r.db()
	if db == nil {
		return nil, storageErr("occupied seats", errNoDB)
	}
	seats, err := querySeats(ctx, db, scope, false)
	if err != nil {
		return nil, storageErr("occupied seats", err)
	}
	return seats, nil
}

func (r InventoryRepo) Atomic(ctx context.Context, scope models.SeatScope, fn func(ctx context.Context, l SeatLedger) error) (err error) {
	db := r.db()
	if db == nil {
		return storageErr("begin", errNoDB)
	}
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return storageErr("begin", err)
	}
	committed := false
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := r.now()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO seat_inventories (bus_id, route_id, version, updated_at)
		VALUES (?, ?, 0, ?)
		ON DUPLICATE KEY UPDATE bus_id = bus_id
	`, scope.BusID, scope.RouteID, now); err != nil {
		return storageErr("lock scope", err)
	}
	var version int64
	if err := tx.QueryRowContext(ctx, `
		SELECT version FROM seat_inventories
		WHERE bus_id = ? AND route_id = ?
		FOR UPDATE
	`, scope.BusID, scope.RouteID).Scan(&version); err != nil {
		return storageErr("lock scope", err)
	}

	if err := fn(ctx, &mysqlLedger{tx: tx, scope: scope}); err != nil {
		return storageErr("atomic unit", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE seat_inventories SET version = ?, updated_at = ?
		WHERE bus_id = ? AND route_id = ?
	`, version+1, now, scope.BusID, scope.RouteID); err != nil {
		return storageErr("bump version", err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit", err)
	}
	committed = true
	return nil
}

func (r InventoryRepo) Booking(ctx context.Context, id int64) (models.Booking, error) {
	db := r.db()
	if db == nil {
		return models.Booking{}, storageErr("get booking", errNoDB)
	}
	b, err := scanBooking(db.QueryRowContext(ctx, bookingSelect+` WHERE id = ? LIMIT 1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Booking{}, domain.NotFoundError{Resource: "booking", Err: err}
		}
		return models.Booking{}, storageErr("get booking", err)
	}
	return b, nil
}

func (r InventoryRepo) BookingsByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	db := r.db()
	if db == nil {
		return nil, storageErr("list bookings", errNoDB)
	}
	rows, err := db.QueryContext(ctx, bookingSelect+` WHERE user_id = ? ORDER BY booking_date DESC, id DESC`, userID)
	if err != nil {
		return nil, storageErr("list bookings", err)
	}
	out, err := scanBookings(rows)
	if err != nil {
		return nil, storageErr("list bookings", err)
	}
	return out, nil
}

func (r InventoryRepo) Bookings(ctx context.Context, f BookingFilter) ([]models.Booking, error) {
	db := r.db()
	if db == nil {
		return nil, storageErr("filter bookings", errNoDB)
	}
	where := []string{}
	args := []any{}
	if f.BusID > 0 {
		where = append(where, "bus_id = ?")
		args = append(args, f.BusID)
	}
	if f.RouteID > 0 {
		where = append(where, "route_id = ?")
		args = append(args, f.RouteID)
	}
	if !f.From.IsZero() {
		where = append(where, "booking_date >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		where = append(where, "booking_date < ?")
		args = append(args, f.To.UTC())
	}
	q := bookingSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY booking_date DESC, id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storageErr("filter bookings", err)
	}
	out, err := scanBookings(rows)
	if err != nil {
		return nil, storageErr("filter bookings", err)
	}
	return out, nil
}

func (r InventoryRepo) DatasetScopes(ctx context.Context, dataset string) ([]models.SeatScope, error) {
	db := r.db()
	if db == nil {
		return nil, storageErr("dataset scopes", errNoDB)
	}
	rows, err := db.QueryContext(ctx, `
		SELECT DISTINCT bus_id, route_id FROM bookings
		WHERE dataset = ? AND booking_status IN (?, ?)
		ORDER BY bus_id, route_id
	`, dataset, string(models.StatusPendingPayment), string(models.StatusConfirmed))
	if err != nil {
		return nil, storageErr("dataset scopes", err)
	}
	defer rows.Close()

	out := []models.SeatScope{}
	for rows.Next() {
		var s models.SeatScope
		if err := rows.Scan(&s.BusID, &s.RouteID); err != nil {
			return nil, storageErr("dataset scopes", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("dataset scopes", err)
	}
	return out, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func querySeats(ctx context.Context, q queryer, scope models.SeatScope, forUpdate bool) ([]string, error) {
	query := `SELECT seat_number FROM seat_occupancy WHERE bus_id = ? AND route_id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	rows, err := q.QueryContext(ctx, query, scope.BusID, scope.RouteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var seat string
		if err := rows.Scan(&seat); err != nil {
			return nil, err
		}
		out = append(out, strings.TrimSpace(seat))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	models.SortSeats(out)
	return out, nil
}

type mysqlLedger struct {
	tx    *sql.Tx
	scope models.SeatScope
}

func (l *mysqlLedger) Scope() models.SeatScope { return l.scope }

func (l *mysqlLedger) Occupied(ctx context.Context) ([]string, error) {
	return querySeats(ctx, l.tx, l.scope, true)
}

func (l *mysqlLedger) MarkOccupied(ctx context.Context, bookingID int64, seats []string) error {
	if len(seats) == 0 {
		return nil
	}
	values := make([]string, 0, len(seats))
	args := make([]any, 0, len(seats)*4)
	for _, s := range seats {
		values = append(values, "(?, ?, ?, ?, UTC_TIMESTAMP(6))")
		args = append(args, l.scope.BusID, l.scope.RouteID, s, bookingID)
	}
	_, err := l.tx.ExecContext(ctx, `
		INSERT INTO seat_occupancy (bus_id, route_id, seat_number, booking_id, occupied_at)
		VALUES `+strings.Join(values, ", ")+`
		ON DUPLICATE KEY UPDATE seat_number = seat_number
	`, args...)
	return err
}

func (l *mysqlLedger) Release(ctx context.Context, seats []string) error {
	if len(seats) == 0 {
		return nil
	}
	args := []any{l.scope.BusID, l.scope.RouteID}
	for _, s := range seats {
		args = append(args, s)
	}
	_, err := l.tx.ExecContext(ctx, `
		DELETE FROM seat_occupancy
		WHERE bus_id = ? AND route_id = ? AND seat_number IN (`+placeholders(len(seats))+`)
	`, args...)
	return err
}

func (l *mysqlLedger) InsertBooking(ctx context.Context, b *models.Booking) error {
	if b.BusID != l.scope.BusID || b.RouteID != l.scope.RouteID {
		return domain.InternalError{Msg: "booking scope does not match the locked scope"}
	}
	seatsJSON, err := encodeSeats(b.SelectedSeats)
	if err != nil {
		return err
	}
	res, err := l.tx.ExecContext(ctx, `
		INSERT INTO bookings (
			reference, user_id, bus_id, route_id,
			passenger_name, passenger_email, passenger_phone,
			selected_seats, number_of_seats,
			package_id, meal_option_id, hotel_option_id, transport_option_id,
			start_date, end_date, number_of_days,
			total_price, client_total_price, booking_status, dataset,
			booking_date, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		b.Reference, b.UserID, b.BusID, b.RouteID,
		b.PassengerName, b.PassengerEmail, b.PassengerPhone,
		seatsJSON, b.NumberOfSeats,
		intdb.NullIfZero(b.PackageID), intdb.NullIfZero(b.Options.MealOptionID), intdb.NullIfZero(b.Options.HotelOptionID), intdb.NullIfZero(b.Options.TransportOptionID),
		intdb.NullIfEmpty(b.StartDate), intdb.NullIfEmpty(b.EndDate), b.NumberOfDays,
		b.TotalPrice, nullInt64(b.ClientTotalPrice), string(b.Status), b.Dataset,
		b.BookingDate, b.UpdatedAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

func (l *mysqlLedger) BookingForUpdate(ctx context.Context, id int64) (models.Booking, error) {
	b, err := scanBooking(l.tx.QueryRowContext(ctx,
		bookingSelect+` WHERE id = ? AND bus_id = ? AND route_id = ? FOR UPDATE`,
		id, l.scope.BusID, l.scope.RouteID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, domain.NotFoundError{Resource: "booking", Err: err}
	}
	return b, err
}

func (l *mysqlLedger) SetStatus(ctx context.Context, id int64, status models.BookingStatus, at time.Time) error {
	res, err := l.tx.ExecContext(ctx, `
		UPDATE bookings SET booking_status = ?, updated_at = ?
		WHERE id = ? AND bus_id = ? AND route_id = ?
	`, string(status), at, id, l.scope.BusID, l.scope.RouteID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFoundError{Resource: "booking"}
	}
	return nil
}

func (l *mysqlLedger) ActiveBookings(ctx context.Context) ([]models.Booking, error) {
	rows, err := l.tx.QueryContext(ctx,
		bookingSelect+` WHERE bus_id = ? AND route_id = ? AND booking_status IN (?, ?) ORDER BY id ASC FOR UPDATE`,
		l.scope.BusID, l.scope.RouteID, string(models.StatusPendingPayment), string(models.StatusConfirmed))
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
