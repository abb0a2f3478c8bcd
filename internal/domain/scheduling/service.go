package scheduling

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/medbook/booking/internal/domain/appointment"
	"github.com/medbook/booking/internal/domain/doctor"
	"github.com/medbook/booking/internal/domain/user"
	"github.com/medbook/booking/internal/platform/db"
	"github.com/medbook/booking/internal/platform/events"
	"github.com/medbook/booking/pkg/apperr"
	"github.com/medbook/booking/pkg/civil"
)

// WeekDays is the number of dates covered by WeekAvailability.
const WeekDays = 7

type DoctorLookup interface {
	GetDoctor(ctx context.Context, id int64) (*doctor.Doctor, error)
}

type UserLookup interface {
	GetUserByPublicID(ctx context.Context, publicID string) (*user.User, error)
}

type Options struct {
	// SlotDuration defaults to DefaultSlotDuration.
	SlotDuration time.Duration
	// CancelledReleasesSlot makes cancelled appointments stop occupying
	// their slot. Off by default: a cancelled slot stays blocked.
	CancelledReleasesSlot bool
}

type Service struct {
	schedules    ScheduleRepository
	appointments appointment.Repository
	doctors      DoctorLookup
	users        UserLookup
	tx           db.TxRunner
	clock        civil.Clock
	emitter      *events.Emitter
	logger       zerolog.Logger
	opts         Options
}

func NewService(schedules ScheduleRepository, appointments appointment.Repository, doctors DoctorLookup,
	users UserLookup, tx db.TxRunner, clock civil.Clock, emitter *events.Emitter, logger zerolog.Logger,
	opts Options) *Service {
	if opts.SlotDuration <= 0 {
		opts.SlotDuration = DefaultSlotDuration
	}
	return &Service{
		schedules:    schedules,
		appointments: appointments,
		doctors:      doctors,
		users:        users,
		tx:           tx,
		clock:        clock,
		emitter:      emitter,
		logger:       logger.With().Str("component", "scheduling").Logger(),
		opts:         opts,
	}
}

// -- Schedule windows --

func (s *Service) CreateSchedule(ctx context.Context, req CreateRequest) (*Schedule, error) {
	doctorID := int64(0)
	if req.Doctor != nil {
		doctorID = req.Doctor.ID
	}
	if doctorID == 0 {
		return nil, apperr.Invalid("Doctor is required")
	}
	if req.ScheduleDate.IsZero() {
		return nil, apperr.Invalid("scheduleDate is required")
	}
	if req.StartTime == nil || req.EndTime == nil {
		return nil, apperr.Invalid("startTime and endTime are required")
	}
	if err := validateWindow(*req.StartTime, *req.EndTime); err != nil {
		return nil, err
	}
	doc, err := s.doctors.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	w := &Schedule{
		DoctorID:     doc.ID,
		Doctor:       refOf(doc),
		ScheduleDate: req.ScheduleDate,
		StartTime:    *req.StartTime,
		EndTime:      *req.EndTime,
		Available:    boolOr(req.Available, true),
	}
	if err := s.schedules.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// CreateSchedulesForDateRange creates one window per date, all or nothing.
func (s *Service) CreateSchedulesForDateRange(ctx context.Context, req RangeRequest) ([]*Schedule, error) {
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return nil, apperr.Invalid("startDate and endDate are required")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, apperr.Invalid("endDate %s is before startDate %s", req.EndDate, req.StartDate)
	}
	if req.StartTime == nil || req.EndTime == nil {
		return nil, apperr.Invalid("startTime and endTime are required")
	}
	if err := validateWindow(*req.StartTime, *req.EndTime); err != nil {
		return nil, err
	}
	doc, err := s.doctors.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}

	var created []*Schedule
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		for _, date := range civil.Range(req.StartDate, req.EndDate) {
			w := &Schedule{
				DoctorID:     doc.ID,
				Doctor:       refOf(doc),
				ScheduleDate: date,
				StartTime:    *req.StartTime,
				EndTime:      *req.EndTime,
				Available:    boolOr(req.Available, true),
			}
			if err := s.schedules.Create(ctx, w); err != nil {
				return err
			}
			created = append(created, w)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) GetSchedule(ctx context.Context, id int64) (*Schedule, error) {
	return s.schedules.GetByID(ctx, id)
}

func (s *Service) ListSchedulesByDoctor(ctx context.Context, doctorID int64) ([]*Schedule, error) {
	return s.schedules.ListByDoctor(ctx, doctorID)
}

// UpdateSchedule merges p onto the stored window and writes it back. The
// ordering check runs on the merged values, so a rejected patch leaves the
// window untouched.
func (s *Service) UpdateSchedule(ctx context.Context, id int64, p Patch) (*Schedule, error) {
	existing, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	merged := *existing
	if p.Available != nil {
		merged.Available = *p.Available
	}
	if p.StartTime != nil {
		merged.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		merged.EndTime = *p.EndTime
	}
	if p.ScheduleDate != nil && !p.ScheduleDate.IsZero() {
		merged.ScheduleDate = *p.ScheduleDate
	}
	if err := validateWindow(merged.StartTime, merged.EndTime); err != nil {
		return nil, err
	}
	if p.Doctor != nil && p.Doctor.ID != 0 && p.Doctor.ID != merged.DoctorID {
		doc, err := s.doctors.GetDoctor(ctx, p.Doctor.ID)
		if err != nil {
			return nil, err
		}
		merged.DoctorID = doc.ID
		merged.Doctor = refOf(doc)
	}

	if err := s.schedules.Update(ctx, &merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

func (s *Service) DeleteSchedule(ctx context.Context, id int64) error {
	return s.schedules.Delete(ctx, id)
}

// DeleteSchedulesForDateRange removes the doctor's windows dated start..end
// inclusive. No match is not an error, and an inverted range matches
// nothing.
func (s *Service) DeleteSchedulesForDateRange(ctx context.Context, doctorID int64, start, end civil.Date) (int64, error) {
	n, err := s.schedules.DeleteByDoctorBetween(ctx, doctorID, start, end)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("doctor_id", doctorID).Str("from", start.String()).Str("to", end.String()).
		Int64("deleted", n).Msg("schedules deleted")
	return n, nil
}

// MarkDateUnavailable turns off every window of the doctor on date.
func (s *Service) MarkDateUnavailable(ctx context.Context, doctorID int64, date civil.Date) error {
	if _, err := s.doctors.GetDoctor(ctx, doctorID); err != nil {
		return err
	}
	n, err := s.schedules.SetAvailableForDate(ctx, doctorID, date, false)
	if err != nil {
		return err
	}
	s.logger.Info().Int64("doctor_id", doctorID).Str("date", date.String()).Int64("windows", n).
		Msg("date marked unavailable")
	return nil
}

// -- Availability --

// AvailableSlots returns the free slot start times of doctorID on date, in
// window order. A date without windows yields an empty list; an unknown
// doctor is NotFound.
func (s *Service) AvailableSlots(ctx context.Context, doctorID int64, date civil.Date) ([]civil.TimeOfDay, error) {
	if _, err := s.doctors.GetDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.availableSlots(ctx, doctorID, date)
}

func (s *Service) availableSlots(ctx context.Context, doctorID int64, date civil.Date) ([]civil.TimeOfDay, error) {
	windows, err := s.schedules.ListByDoctorAndDate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	candidates := GenerateDaySlots(windows, s.opts.SlotDuration)
	if len(candidates) == 0 {
		return []civil.TimeOfDay{}, nil
	}

	booked, err := s.bookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	return subtractBooked(candidates, booked), nil
}

// bookedTimes collects the time of day of every appointment in
// [date 00:00, date+1 00:00).
func (s *Service) bookedTimes(ctx context.Context, doctorID int64, date civil.Date) (map[civil.TimeOfDay]bool, error) {
	from := civil.DateTime{Date: date}
	to := civil.DateTime{Date: date.AddDays(1)}
	appts, err := s.appointments.ListByDoctorBetween(ctx, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	booked := make(map[civil.TimeOfDay]bool, len(appts))
	for _, a := range appts {
		if s.opts.CancelledReleasesSlot && !a.Active() {
			continue
		}
		booked[a.AppointmentDate.Time] = true
	}
	return booked, nil
}

// WeekAvailability returns AvailableSlots for today and the following six
// days, today being taken in the clock's time zone. The doctor is not
// looked up: an unknown id yields seven empty days.
func (s *Service) WeekAvailability(ctx context.Context, doctorID int64) ([]DayAvailability, error) {
	today := civil.Today(s.clock)
	week := make([]DayAvailability, 0, WeekDays)
	for i := 0; i < WeekDays; i++ {
		date := today.AddDays(i)
		slots, err := s.availableSlots(ctx, doctorID, date)
		if err != nil {
			return nil, err
		}
		week = append(week, DayAvailability{Date: date, Slots: slots})
	}
	return week, nil
}

// -- Booking --

// BookAppointment books the slot starting at `at` for the user with
// userPublicID. The availability check and the insert run in one
// transaction holding a per-doctor lock, so concurrent bookings of the same
// slot cannot both succeed.
func (s *Service) BookAppointment(ctx context.Context, doctorID int64, userPublicID string, at civil.DateTime) (*appointment.Appointment, error) {
	doc, err := s.doctors.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetUserByPublicID(ctx, userPublicID)
	if err != nil {
		return nil, err
	}

	a := &appointment.Appointment{
		UserID:          u.ID,
		DoctorID:        doc.ID,
		AppointmentDate: at,
		Status:          appointment.StatusScheduled,
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.appointments.LockDoctor(ctx, doc.ID); err != nil {
			return err
		}
		free, err := s.availableSlots(ctx, doc.ID, at.Date)
		if err != nil {
			return err
		}
		if !containsTime(free, at.Time) {
			return apperr.Conflict("slot not available: %s", at)
		}
		return s.appointments.Create(ctx, a)
	})
	if err != nil {
		s.logger.Info().Err(err).Int64("doctor_id", doc.ID).Str("at", at.String()).Msg("booking rejected")
		return nil, err
	}

	s.logger.Info().Int64("appointment_id", a.ID).Int64("doctor_id", doc.ID).Int64("user_id", u.ID).
		Str("at", at.String()).Msg("appointment booked")
	s.emitter.Emit(ctx, events.AppointmentBooked, appointment.NewEventPayload(a, ""))
	return a, nil
}

func containsTime(slots []civil.TimeOfDay, t civil.TimeOfDay) bool {
	for _, s := range slots {
		if s == t {
			return true
		}
	}
	return false
}

func validateWindow(start, end civil.TimeOfDay) error {
	if !start.Valid() || !end.Valid() {
		return apperr.Invalid("time of day out of range")
	}
	if start.After(end) {
		return apperr.Invalid("start time %s is after end time %s", start, end)
	}
	return nil
}

func refOf(d *doctor.Doctor) *DoctorRef {
	return &DoctorRef{ID: d.ID, Name: d.Name, Specialty: d.Specialty}
}
