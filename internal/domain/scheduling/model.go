package scheduling

import (
	"time"

	"github.com/medbook/booking/pkg/civil"
)

// Schedule is a doctor's working window on one date. Bookable slots are
// derived from it on every read; nothing about slots is stored.
type Schedule struct {
	ID           int64           `json:"id"`
	DoctorID     int64           `json:"-"`
	Doctor       *DoctorRef      `json:"doctor"`
	ScheduleDate civil.Date      `json:"scheduleDate"`
	StartTime    civil.TimeOfDay `json:"startTime"`
	EndTime      civil.TimeOfDay `json:"endTime"`
	Available    bool            `json:"available"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// DoctorRef is the doctor as embedded in a window.
type DoctorRef struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name,omitempty"`
	Specialty *string `json:"specialty,omitempty"`
}

// Ref is a nested {"id": n} reference in request bodies.
type Ref struct {
	ID int64 `json:"id"`
}

// CreateRequest is the body of POST /schedules. Available defaults to true.
type CreateRequest struct {
	Doctor       *Ref             `json:"doctor"`
	ScheduleDate civil.Date       `json:"scheduleDate"`
	StartTime    *civil.TimeOfDay `json:"startTime"`
	EndTime      *civil.TimeOfDay `json:"endTime"`
	Available    *bool            `json:"available"`
}

// RangeRequest creates one identical window per date from StartDate through
// EndDate.
type RangeRequest struct {
	DoctorID  int64            `json:"doctorId"`
	StartDate civil.Date       `json:"startDate"`
	EndDate   civil.Date       `json:"endDate"`
	StartTime *civil.TimeOfDay `json:"startTime"`
	EndTime   *civil.TimeOfDay `json:"endTime"`
	Available *bool            `json:"available"`
}

// Patch is a partial window update. Nil fields keep their stored value.
type Patch struct {
	Available    *bool            `json:"available"`
	StartTime    *civil.TimeOfDay `json:"startTime"`
	EndTime      *civil.TimeOfDay `json:"endTime"`
	ScheduleDate *civil.Date      `json:"scheduleDate"`
	Doctor       *Ref             `json:"doctor"`
}

// DayAvailability lists the free slot start times of one date.
type DayAvailability struct {
	Date  civil.Date        `json:"date"`
	Slots []civil.TimeOfDay `json:"slots"`
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
