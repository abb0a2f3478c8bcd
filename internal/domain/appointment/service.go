package appointment

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/medbook/booking/internal/domain/doctor"
	"github.com/medbook/booking/internal/domain/hospital"
	"github.com/medbook/booking/internal/domain/user"
	"github.com/medbook/booking/internal/platform/events"
	"github.com/medbook/booking/pkg/apperr"
	"github.com/medbook/booking/pkg/civil"
)

type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*user.User, error)
	GetUserByPublicID(ctx context.Context, publicID string) (*user.User, error)
}

type DoctorLookup interface {
	GetDoctor(ctx context.Context, id int64) (*doctor.Doctor, error)
}

type HospitalLookup interface {
	GetHospital(ctx context.Context, id int64) (*hospital.Hospital, error)
}

type Service struct {
	repo      Repository
	users     UserLookup
	doctors   DoctorLookup
	hospitals HospitalLookup
	emitter   *events.Emitter
	logger    zerolog.Logger
}

func NewService(repo Repository, users UserLookup, doctors DoctorLookup, hospitals HospitalLookup,
	emitter *events.Emitter, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		users:     users,
		doctors:   doctors,
		hospitals: hospitals,
		emitter:   emitter,
		logger:    logger.With().Str("component", "appointment").Logger(),
	}
}

// CreateAppointment books on behalf of staff. Unlike slot booking it does
// not consult doctor schedules; the store still rejects a second live
// appointment for the same doctor and instant.
func (s *Service) CreateAppointment(ctx context.Context, req CreateRequest) (*Appointment, error) {
	a := &Appointment{AppointmentDate: req.AppointmentDate, Status: strings.ToUpper(strings.TrimSpace(req.Status))}
	if a.Status == "" {
		a.Status = StatusConfirmed
	}
	if !validStatuses[a.Status] {
		return nil, apperr.Invalid("invalid appointment status: %s", req.Status)
	}

	if id := refID(req.User); id != 0 {
		if _, err := s.users.GetUser(ctx, id); err != nil {
			return nil, asInvalidRef(err, "User", id)
		}
		a.UserID = id
	}
	if id := refID(req.Doctor); id != 0 {
		if _, err := s.doctors.GetDoctor(ctx, id); err != nil {
			return nil, asInvalidRef(err, "Doctor", id)
		}
		a.DoctorID = id
	}
	if id := refID(req.Hospital); id != 0 {
		if _, err := s.hospitals.GetHospital(ctx, id); err != nil {
			return nil, asInvalidRef(err, "Hospital", id)
		}
		a.HospitalID = &id
	}

	switch {
	case a.AppointmentDate.IsZero():
		return nil, apperr.Invalid("Appointment date is required")
	case a.UserID == 0:
		return nil, apperr.Invalid("User is required")
	case a.DoctorID == 0:
		return nil, apperr.Invalid("Doctor is required")
	case a.HospitalID == nil:
		return nil, apperr.Invalid("Hospital is required")
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("appointment_id", a.ID).Int64("doctor_id", a.DoctorID).
		Str("at", a.AppointmentDate.String()).Msg("appointment created by staff")
	s.emitter.Emit(ctx, events.AppointmentBooked, NewEventPayload(a, ""))
	return a, nil
}

func asInvalidRef(err error, entity string, id int64) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.Invalid("%s not found with ID: %d", entity, id)
	}
	return err
}

func (s *Service) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*Appointment, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListActiveByUser(ctx context.Context, userID int64) ([]*Appointment, error) {
	return s.repo.ListActiveByUser(ctx, userID)
}

func (s *Service) ListByHospital(ctx context.Context, hospitalID int64) ([]*Appointment, error) {
	return s.repo.ListByHospital(ctx, hospitalID)
}

func (s *Service) ListByHospitalAndRange(ctx context.Context, hospitalID int64, from, to civil.DateTime) ([]*Appointment, error) {
	if to.Before(from) {
		return nil, apperr.Invalid("range end %s is before start %s", to, from)
	}
	return s.repo.ListByHospitalBetween(ctx, hospitalID, from, to)
}

// UpdateStatus moves an appointment to SCHEDULED, COMPLETED or CANCELLED.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !updatableStatuses[status] {
		return nil, apperr.Invalid("invalid appointment status: %s", status)
	}
	return s.transition(ctx, a, status)
}

// CancelAppointment sets the appointment to CANCELLED whatever its current
// status.
func (s *Service) CancelAppointment(ctx context.Context, id int64) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, a, StatusCancelled)
}

// CancelAppointmentForUser cancels the appointment only when userID owns it.
// A missing or foreign appointment yields false without an error; only
// store failures are returned.
func (s *Service) CancelAppointmentForUser(ctx context.Context, appointmentID, userID int64) (bool, error) {
	a, err := s.repo.GetByID(ctx, appointmentID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if a.UserID != userID {
		s.logger.Info().Int64("appointment_id", appointmentID).Int64("user_id", userID).
			Msg("cancel refused: appointment owned by another user")
		return false, nil
	}
	if _, err := s.transition(ctx, a, StatusCancelled); err != nil {
		return false, err
	}
	return true, nil
}

// ResolveUserID maps a token subject (user public id) to the internal id.
func (s *Service) ResolveUserID(ctx context.Context, publicID string) (int64, error) {
	u, err := s.users.GetUserByPublicID(ctx, publicID)
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

func (s *Service) transition(ctx context.Context, a *Appointment, status string) (*Appointment, error) {
	previous := a.Status
	a.Status = status
	if err := s.repo.UpdateStatus(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("appointment_id", a.ID).Str("from", previous).Str("to", status).
		Msg("appointment status changed")

	eventType := events.AppointmentStatusChanged
	if status == StatusCancelled {
		eventType = events.AppointmentCancelled
	}
	s.emitter.Emit(ctx, eventType, NewEventPayload(a, previous))
	return a, nil
}

// EventPayload is the body of appointment lifecycle events.
type EventPayload struct {
	AppointmentID   int64          `json:"appointmentId"`
	UserID          int64          `json:"userId"`
	DoctorID        int64          `json:"doctorId"`
	HospitalID      *int64         `json:"hospitalId,omitempty"`
	AppointmentDate civil.DateTime `json:"appointmentDate"`
	Status          string         `json:"status"`
	PreviousStatus  string         `json:"previousStatus,omitempty"`
}

func NewEventPayload(a *Appointment, previous string) EventPayload {
	return EventPayload{
		AppointmentID:   a.ID,
		UserID:          a.UserID,
		DoctorID:        a.DoctorID,
		HospitalID:      a.HospitalID,
		AppointmentDate: a.AppointmentDate,
		Status:          a.Status,
		PreviousStatus:  previous,
	}
}
