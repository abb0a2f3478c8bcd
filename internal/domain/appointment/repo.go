package appointment

import (
	"context"

	"github.com/medbook/booking/pkg/civil"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	// UpdateStatus writes a.Status and refreshes a.UpdatedAt.
	UpdateStatus(ctx context.Context, a *Appointment) error
	List(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	ListByUser(ctx context.Context, userID int64) ([]*Appointment, error)
	ListActiveByUser(ctx context.Context, userID int64) ([]*Appointment, error)
	ListByHospital(ctx context.Context, hospitalID int64) ([]*Appointment, error)
	// ListByHospitalBetween is inclusive at both ends.
	ListByHospitalBetween(ctx context.Context, hospitalID int64, from, to civil.DateTime) ([]*Appointment, error)
	// ListByDoctorBetween returns appointments in [from, to), any status.
	ListByDoctorBetween(ctx context.Context, doctorID int64, from, to civil.DateTime) ([]*Appointment, error)
	// LockDoctor serializes bookings for doctorID until the surrounding
	// transaction ends. It must run inside db.TxRunner.InTx.
	LockDoctor(ctx context.Context, doctorID int64) error
}
