package repositories

import (
	"context"
	"database/sql"
	"errors"

	intconfig "seatengine/internal/config"
	"seatengine/internal/domain"
	"seatengine/internal/domain/models"
)

type CatalogRepo struct {
	DB *sql.DB
}

func (r CatalogRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r CatalogRepo) Bus(ctx context.Context, id int64) (models.Bus, error) {
	db := r.db()
	if db == nil {
		return models.Bus{}, storageErr("get bus", errNoDB)
	}
	var b models.Bus
	err := db.QueryRowContext(ctx, `
		SELECT id, bus_name, registration_number, seating_capacity
		FROM buses WHERE id = ? LIMIT 1
	`, id).Scan(&b.ID, &b.Name, &b.RegistrationNumber, &b.SeatingCapacity)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Bus{}, domain.NotFoundError{Resource: "bus", Err: err}
	}
	if err != nil {
		return models.Bus{}, storageErr("get bus", err)
	}
	return b, nil
}

func (r CatalogRepo) Route(ctx context.Context, id int64) (models.Route, error) {
	db := r.db()
	if db == nil {
		return models.Route{}, storageErr("get route", errNoDB)
	}
	var rt models.Route
	err := db.QueryRowContext(ctx, `
		SELECT id, from_location, to_location, ticket_price
		FROM routes WHERE id = ? LIMIT 1
	`, id).Scan(&rt.ID, &rt.FromLocation, &rt.ToLocation, &rt.TicketPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Route{}, domain.NotFoundError{Resource: "route", Err: err}
	}
	if err != nil {
		return models.Route{}, storageErr("get route", err)
	}
	return rt, nil
}

func (r CatalogRepo) Package(ctx context.Context, id int64) (models.Package, error) {
	db := r.db()
	if db == nil {
		return models.Package{}, storageErr("get package", errNoDB)
	}
	var p models.Package
	var desc sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT id, code, title, description, base_price
		FROM packages WHERE id = ? LIMIT 1
	`, id).Scan(&p.ID, &p.Code, &p.Title, &desc, &p.BasePrice)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Package{}, domain.NotFoundError{Resource: "package", Err: err}
	}
	if err != nil {
		return models.Package{}, storageErr("get package", err)
	}
	p.Description = desc.String

	opts, err := r.options(ctx, db, `WHERE package_id = ?`, id)
	if err != nil {
		return models.Package{}, storageErr("get package options", err)
	}
	p.Options = opts[p.ID]
	if p.Options == nil {
		p.Options = []models.PackageOption{}
	}
	return p, nil
}

func (r CatalogRepo) Packages(ctx context.Context) ([]models.Package, error) {
	db := r.db()
	if db == nil {
		return nil, storageErr("list packages", errNoDB)
	}
	rows, err := db.QueryContext(ctx, `SELECT id, code, title, description, base_price FROM packages ORDER BY id ASC`)
	if err != nil {
		return nil, storageErr("list packages", err)
	}
	defer rows.Close()

	out := []models.Package{}
	for rows.Next() {
		var p models.Package
		var desc sql.NullString
		if err := rows.Scan(&p.ID, &p.Code, &p.Title, &desc, &p.BasePrice); err != nil {
			return nil, storageErr("list packages", err)
		}
		p.Description = desc.String
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list packages", err)
	}

	opts, err := r.options(ctx, db, ``)
	if err != nil {
		return nil, storageErr("list package options", err)
	}
	for i := range out {
		out[i].Options = opts[out[i].ID]
		if out[i].Options == nil {
			out[i].Options = []models.PackageOption{}
		}
	}
	return out, nil
}

func (r CatalogRepo) options(ctx context.Context, db *sql.DB, where string, args ...any) (map[int64][]models.PackageOption, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, package_id, option_type, name, price
		FROM package_options `+where+`
		ORDER BY package_id ASC, id ASC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64][]models.PackageOption{}
	for rows.Next() {
		var o models.PackageOption
		var typ string
		if err := rows.Scan(&o.ID, &o.PackageID, &typ, &o.Name, &o.Price); err != nil {
			return nil, err
		}
		o.OptionType = models.OptionType(typ)
		out[o.PackageID] = append(out[o.PackageID], o)
	}
	return out, rows.Err()
}
