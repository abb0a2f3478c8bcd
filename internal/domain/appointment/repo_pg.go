package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medbook/booking/internal/platform/db"
	"github.com/medbook/booking/pkg/apperr"
	"github.com/medbook/booking/pkg/civil"
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

const apptCols = `id, user_id, doctor_id, hospital_id, appointment_date, status, created_at, updated_at`

// appointment_date is TIMESTAMP WITHOUT TIME ZONE: pgx hands back the wall
// clock in UTC and writes whatever wall clock it is given.
func stamp(dt civil.DateTime) time.Time { return dt.In(time.UTC) }

func (r *repoPG) scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var at time.Time
	if err := row.Scan(&a.ID, &a.UserID, &a.DoctorID, &a.HospitalID, &at, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.AppointmentDate = civil.DateTimeOf(at)
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (user_id, doctor_id, hospital_id, appointment_date, status)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at, updated_at`,
		a.UserID, a.DoctorID, a.HospitalID, stamp(a.AppointmentDate), a.Status,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	switch {
	case db.IsUniqueViolation(err):
		return apperr.Conflict("doctor %d already has an appointment at %s", a.DoctorID, a.AppointmentDate)
	case db.IsForeignKeyViolation(err):
		return apperr.Invalid("appointment references an unknown user, doctor or hospital")
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	a, err := r.scanAppointment(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("appointment not found with ID: %d", id)
	}
	return a, err
}

func (r *repoPG) UpdateStatus(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE appointment SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`, a.ID, a.Status).Scan(&a.UpdatedAt)
	switch {
	case db.IsNoRows(err):
		return apperr.NotFound("appointment not found with ID: %d", a.ID)
	case db.IsUniqueViolation(err):
		return apperr.Conflict("doctor %d already has an appointment at %s", a.DoctorID, a.AppointmentDate)
	}
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment`).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.query(ctx, `SELECT `+apptCols+` FROM appointment
		ORDER BY appointment_date DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) ListByUser(ctx context.Context, userID int64) ([]*Appointment, error) {
	return r.query(ctx, `SELECT `+apptCols+` FROM appointment WHERE user_id = $1
		ORDER BY appointment_date, id`, userID)
}

func (r *repoPG) ListActiveByUser(ctx context.Context, userID int64) ([]*Appointment, error) {
	return r.query(ctx, `SELECT `+apptCols+` FROM appointment WHERE user_id = $1 AND status <> $2
		ORDER BY appointment_date, id`, userID, StatusCancelled)
}

func (r *repoPG) ListByHospital(ctx context.Context, hospitalID int64) ([]*Appointment, error) {
	return r.query(ctx, `SELECT `+apptCols+` FROM appointment WHERE hospital_id = $1
		ORDER BY appointment_date, id`, hospitalID)
}

func (r *repoPG) ListByHospitalBetween(ctx context.Context, hospitalID int64, from, to civil.DateTime) ([]*Appointment, error) {
	return r.query(ctx, `SELECT `+apptCols+` FROM appointment
		WHERE hospital_id = $1 AND appointment_date BETWEEN $2 AND $3
		ORDER BY appointment_date, id`, hospitalID, stamp(from), stamp(to))
}

func (r *repoPG) ListByDoctorBetween(ctx context.Context, doctorID int64, from, to civil.DateTime) ([]*Appointment, error) {
	return r.query(ctx, `SELECT `+apptCols+` FROM appointment
		WHERE doctor_id = $1 AND appointment_date >= $2 AND appointment_date < $3
		ORDER BY appointment_date, id`, doctorID, stamp(from), stamp(to))
}

// doctorLockSpace is the first key of the two-key advisory lock taken while
// booking ("bkng"). Other advisory lock users must pick a different space.
const doctorLockSpace int32 = 0x626b6e67

// doctorLockKey folds the doctor id into the second 32-bit key. Two doctors
// sharing a key only serialize each other's bookings.
func doctorLockKey(doctorID int64) int32 {
	return int32(doctorID ^ doctorID>>32)
}

func (r *repoPG) LockDoctor(ctx context.Context, doctorID int64) error {
	if db.ConnFromContext(ctx) == nil {
		return fmt.Errorf("lock doctor %d: no transaction in context", doctorID)
	}
	_, err := r.conn(ctx).Exec(ctx, `SELECT pg_advisory_xact_lock($1::int4, $2::int4)`,
		doctorLockSpace, doctorLockKey(doctorID))
	return err
}

func (r *repoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
