package doctor

import (
	"context"
	"errors"
	"strings"

	"github.com/medbook/booking/internal/domain/hospital"
	"github.com/medbook/booking/pkg/apperr"
)

// HospitalLookup resolves hospital references on new doctors.
type HospitalLookup interface {
	GetHospital(ctx context.Context, id int64) (*hospital.Hospital, error)
}

type Service struct {
	repo      Repository
	hospitals HospitalLookup
}

func NewService(repo Repository, hospitals HospitalLookup) *Service {
	return &Service{repo: repo, hospitals: hospitals}
}

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return apperr.Invalid("name is required")
	}
	days, err := normalizeDays(d.AvailableDays)
	if err != nil {
		return err
	}
	d.AvailableDays = days

	d.HospitalID = nil
	if d.Hospital != nil && d.Hospital.ID != 0 {
		h, err := s.hospitals.GetHospital(ctx, d.Hospital.ID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.Invalid("hospital not found with ID: %d", d.Hospital.ID)
			}
			return err
		}
		d.HospitalID = &h.ID
		d.Hospital = &HospitalRef{ID: h.ID, Name: h.Name, City: h.City, District: h.District}
	} else {
		d.Hospital = nil
	}
	return s.repo.Create(ctx, d)
}

func (s *Service) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

// ListDoctors returns every doctor, or only those whose specialty contains
// the given text (case-insensitive) when specialty is non-empty.
func (s *Service) ListDoctors(ctx context.Context, specialty string, limit, offset int) ([]*Doctor, int, error) {
	if specialty = strings.TrimSpace(specialty); specialty != "" {
		return s.repo.SearchBySpecialty(ctx, specialty, limit, offset)
	}
	return s.repo.List(ctx, limit, offset)
}

func normalizeDays(days []string) ([]string, error) {
	out := make([]string, 0, len(days))
	seen := make(map[string]bool, len(days))
	for _, d := range days {
		day := strings.ToUpper(strings.TrimSpace(d))
		if !validDays[day] {
			return nil, apperr.Invalid("invalid available day: %s", d)
		}
		if !seen[day] {
			seen[day] = true
			out = append(out, day)
		}
	}
	return out, nil
}
