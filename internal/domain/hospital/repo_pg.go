package hospital

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medbook/booking/internal/platform/db"
	"github.com/medbook/booking/pkg/apperr"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const hospitalCols = `id, name, city, district, address, phone, latitude, longitude, created_at, updated_at`

func (r *repoPG) scanHospital(row pgx.Row) (*Hospital, error) {
	var h Hospital
	err := row.Scan(&h.ID, &h.Name, &h.City, &h.District, &h.Address, &h.Phone,
		&h.Latitude, &h.Longitude, &h.CreatedAt, &h.UpdatedAt)
	return &h, err
}

func (r *repoPG) Create(ctx context.Context, h *Hospital) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO hospital (name, city, district, address, phone, latitude, longitude)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at, updated_at`,
		h.Name, h.City, h.District, h.Address, h.Phone, h.Latitude, h.Longitude,
	).Scan(&h.ID, &h.CreatedAt, &h.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Hospital, error) {
	h, err := r.scanHospital(r.conn(ctx).QueryRow(ctx, `SELECT `+hospitalCols+` FROM hospital WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("hospital not found with ID: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM hospital`).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.query(ctx, `SELECT `+hospitalCols+` FROM hospital ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) ListByCity(ctx context.Context, city string) ([]*Hospital, error) {
	return r.query(ctx, `SELECT `+hospitalCols+` FROM hospital WHERE lower(city) = lower($1) ORDER BY id`, city)
}

func (r *repoPG) ListByCityAndDistrict(ctx context.Context, city, district string) ([]*Hospital, error) {
	return r.query(ctx, `SELECT `+hospitalCols+` FROM hospital
		WHERE lower(city) = lower($1) AND lower(district) = lower($2) ORDER BY id`, city, district)
}

func (r *repoPG) ListWithinBox(ctx context.Context, box Box) ([]*Hospital, error) {
	return r.query(ctx, `SELECT `+hospitalCols+` FROM hospital
		WHERE latitude BETWEEN $1 AND $2 AND longitude BETWEEN $3 AND $4 ORDER BY id`,
		box.MinLat, box.MaxLat, box.MinLng, box.MaxLng)
}

func (r *repoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Hospital, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query hospitals: %w", err)
	}
	defer rows.Close()
	var items []*Hospital
	for rows.Next() {
		h, err := r.scanHospital(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, h)
	}
	return items, rows.Err()
}
