package appointment

import (
	"time"

	"github.com/medbook/booking/pkg/civil"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusConfirmed = "CONFIRMED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
)

// Statuses accepted on creation.
var validStatuses = map[string]bool{
	StatusScheduled: true, StatusConfirmed: true, StatusCompleted: true, StatusCancelled: true,
}

// Statuses reachable through UpdateStatus. CONFIRMED is only ever set at
// creation.
var updatableStatuses = map[string]bool{
	StatusScheduled: true, StatusCompleted: true, StatusCancelled: true,
}

// Appointment is a booking of a doctor by a user at a wall-clock instant.
// HospitalID is nil for appointments booked through schedule slots.
type Appointment struct {
	ID              int64          `json:"id"`
	UserID          int64          `json:"userId"`
	DoctorID        int64          `json:"doctorId"`
	HospitalID      *int64         `json:"hospitalId,omitempty"`
	AppointmentDate civil.DateTime `json:"appointmentDate"`
	Status          string         `json:"status"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// Active reports whether the appointment still holds its slot.
func (a *Appointment) Active() bool {
	return a.Status != StatusCancelled
}

// Ref is a nested {"id": n} reference in request bodies.
type Ref struct {
	ID int64 `json:"id"`
}

// CreateRequest is the staff-side create body. References without an id
// are treated as absent.
type CreateRequest struct {
	AppointmentDate civil.DateTime `json:"appointmentDate"`
	Status          string         `json:"status"`
	User            *Ref           `json:"user"`
	Doctor          *Ref           `json:"doctor"`
	Hospital        *Ref           `json:"hospital"`
}

func refID(r *Ref) int64 {
	if r == nil {
		return 0
	}
	return r.ID
}
