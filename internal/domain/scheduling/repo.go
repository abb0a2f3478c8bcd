package scheduling

import (
	"context"

	"github.com/medbook/booking/pkg/civil"
)

type ScheduleRepository interface {
	Create(ctx context.Context, s *Schedule) error
	GetByID(ctx context.Context, id int64) (*Schedule, error)
	Update(ctx context.Context, s *Schedule) error
	Delete(ctx context.Context, id int64) error
	// ListByDoctor and ListByDoctorAndDate return windows in creation order.
	ListByDoctor(ctx context.Context, doctorID int64) ([]*Schedule, error)
	ListByDoctorAndDate(ctx context.Context, doctorID int64, date civil.Date) ([]*Schedule, error)
	SetAvailableForDate(ctx context.Context, doctorID int64, date civil.Date, available bool) (int64, error)
	// DeleteByDoctorBetween removes windows dated start..end inclusive.
	DeleteByDoctorBetween(ctx context.Context, doctorID int64, start, end civil.Date) (int64, error)
}
