package doctor

import (
	"context"
	"fmt"
	"strings"

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

const doctorCols = `d.id, d.name, d.specialty, d.contact_number, d.hospital_id, d.available_days,
	d.created_at, d.updated_at, h.name, h.city, h.district`

const doctorFrom = ` FROM doctor d LEFT JOIN hospital h ON h.id = d.hospital_id`

func (r *repoPG) scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var hName *string
	var hCity, hDistrict *string
	err := row.Scan(&d.ID, &d.Name, &d.Specialty, &d.ContactNumber, &d.HospitalID, &d.AvailableDays,
		&d.CreatedAt, &d.UpdatedAt, &hName, &hCity, &hDistrict)
	if err != nil {
		return nil, err
	}
	if d.HospitalID != nil {
		d.Hospital = &HospitalRef{ID: *d.HospitalID, City: hCity, District: hDistrict}
		if hName != nil {
			d.Hospital.Name = *hName
		}
	}
	if d.AvailableDays == nil {
		d.AvailableDays = []string{}
	}
	return &d, nil
}

func (r *repoPG) Create(ctx context.Context, d *Doctor) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctor (name, specialty, contact_number, hospital_id, available_days)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at, updated_at`,
		d.Name, d.Specialty, d.ContactNumber, d.HospitalID, d.AvailableDays,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if db.IsForeignKeyViolation(err) {
		return apperr.Invalid("hospital not found with ID: %d", *d.HospitalID)
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Doctor, error) {
	d, err := r.scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+doctorFrom+` WHERE d.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("doctor not found with ID: %d", id)
	}
	return d, err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return r.list(ctx, ``, nil, limit, offset)
}

func (r *repoPG) SearchBySpecialty(ctx context.Context, specialty string, limit, offset int) ([]*Doctor, int, error) {
	return r.list(ctx, ` WHERE d.specialty ILIKE $1`, []interface{}{"%" + escapeLike(specialty) + "%"}, limit, offset)
}

func (r *repoPG) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Doctor, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctor d`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	n := len(args)
	query := `SELECT ` + doctorCols + doctorFrom + where +
		fmt.Sprintf(` ORDER BY d.id LIMIT $%d OFFSET $%d`, n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		d, err := r.scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
