package scheduling

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
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

type scheduleRepoPG struct{ pool *pgxpool.Pool }

func NewScheduleRepoPG(pool *pgxpool.Pool) ScheduleRepository { return &scheduleRepoPG{pool: pool} }

func (r *scheduleRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const schedCols = `s.id, s.doctor_id, s.schedule_date, s.start_time, s.end_time, s.available,
	s.created_at, s.updated_at, d.name, d.specialty`

const schedFrom = ` FROM doctor_schedule s JOIN doctor d ON d.id = s.doctor_id`

func pgDate(d civil.Date) time.Time { return d.In(time.UTC) }

func pgTime(t civil.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t.Duration() / time.Microsecond), Valid: true}
}

func fromPGTime(t pgtype.Time) civil.TimeOfDay {
	return civil.TimeOfDay(t.Microseconds / int64(time.Second/time.Microsecond))
}

func (r *scheduleRepoPG) scanSchedule(row pgx.Row) (*Schedule, error) {
	var s Schedule
	var date time.Time
	var start, end pgtype.Time
	var doc DoctorRef
	err := row.Scan(&s.ID, &s.DoctorID, &date, &start, &end, &s.Available,
		&s.CreatedAt, &s.UpdatedAt, &doc.Name, &doc.Specialty)
	if err != nil {
		return nil, err
	}
	s.ScheduleDate = civil.DateOf(date)
	s.StartTime = fromPGTime(start)
	s.EndTime = fromPGTime(end)
	doc.ID = s.DoctorID
	s.Doctor = &doc
	return &s, nil
}

func (r *scheduleRepoPG) Create(ctx context.Context, s *Schedule) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctor_schedule (doctor_id, schedule_date, start_time, end_time, available)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at, updated_at`,
		s.DoctorID, pgDate(s.ScheduleDate), pgTime(s.StartTime), pgTime(s.EndTime), s.Available,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if db.IsForeignKeyViolation(err) {
		return apperr.NotFound("doctor not found with ID: %d", s.DoctorID)
	}
	return err
}

func (r *scheduleRepoPG) GetByID(ctx context.Context, id int64) (*Schedule, error) {
	s, err := r.scanSchedule(r.conn(ctx).QueryRow(ctx, `SELECT `+schedCols+schedFrom+` WHERE s.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("schedule not found with ID: %d", id)
	}
	return s, err
}

func (r *scheduleRepoPG) Update(ctx context.Context, s *Schedule) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE doctor_schedule SET doctor_id=$2, schedule_date=$3, start_time=$4, end_time=$5,
			available=$6, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		s.ID, s.DoctorID, pgDate(s.ScheduleDate), pgTime(s.StartTime), pgTime(s.EndTime), s.Available,
	).Scan(&s.UpdatedAt)
	switch {
	case db.IsNoRows(err):
		return apperr.NotFound("schedule not found with ID: %d", s.ID)
	case db.IsForeignKeyViolation(err):
		return apperr.NotFound("doctor not found with ID: %d", s.DoctorID)
	}
	return err
}

func (r *scheduleRepoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctor_schedule WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("schedule not found with ID: %d", id)
	}
	return nil
}

func (r *scheduleRepoPG) ListByDoctor(ctx context.Context, doctorID int64) ([]*Schedule, error) {
	return r.query(ctx, `SELECT `+schedCols+schedFrom+` WHERE s.doctor_id = $1
		ORDER BY s.schedule_date, s.id`, doctorID)
}

func (r *scheduleRepoPG) ListByDoctorAndDate(ctx context.Context, doctorID int64, date civil.Date) ([]*Schedule, error) {
	return r.query(ctx, `SELECT `+schedCols+schedFrom+` WHERE s.doctor_id = $1 AND s.schedule_date = $2
		ORDER BY s.id`, doctorID, pgDate(date))
}

func (r *scheduleRepoPG) SetAvailableForDate(ctx context.Context, doctorID int64, date civil.Date, available bool) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctor_schedule SET available = $3, updated_at = NOW()
		WHERE doctor_id = $1 AND schedule_date = $2`, doctorID, pgDate(date), available)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *scheduleRepoPG) DeleteByDoctorBetween(ctx context.Context, doctorID int64, start, end civil.Date) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM doctor_schedule
		WHERE doctor_id = $1 AND schedule_date BETWEEN $2 AND $3`, doctorID, pgDate(start), pgDate(end))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *scheduleRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Schedule, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Schedule
	for rows.Next() {
		s, err := r.scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
