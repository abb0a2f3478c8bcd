package doctor

import "time"

// Doctor is a bookable practitioner. HospitalID is nil for doctors not
// attached to a facility.
type Doctor struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Specialty     *string      `json:"specialty,omitempty"`
	ContactNumber *string      `json:"contactNumber,omitempty"`
	HospitalID    *int64       `json:"-"`
	Hospital      *HospitalRef `json:"hospital,omitempty"`
	AvailableDays []string     `json:"availableDays"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// HospitalRef is the hospital as embedded in a doctor. Only ID is read on
// input.
type HospitalRef struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name,omitempty"`
	City     *string `json:"city,omitempty"`
	District *string `json:"district,omitempty"`
}

// Weekdays accepted in AvailableDays.
var validDays = map[string]bool{
	"MONDAY": true, "TUESDAY": true, "WEDNESDAY": true, "THURSDAY": true,
	"FRIDAY": true, "SATURDAY": true, "SUNDAY": true,
}
