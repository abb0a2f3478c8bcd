package hospital

import (
	"context"
	"math"
	"strings"

	"github.com/medbook/booking/pkg/apperr"
)

// DefaultRadiusKm is used by nearby searches that do not give a radius.
const DefaultRadiusKm = 5.0

// kmPerDegree approximates the length of one degree of latitude.
const kmPerDegree = 111.0

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateHospital(ctx context.Context, h *Hospital) error {
	h.Name = strings.TrimSpace(h.Name)
	if h.Name == "" {
		return apperr.Invalid("name is required")
	}
	if (h.Latitude == nil) != (h.Longitude == nil) {
		return apperr.Invalid("latitude and longitude must be given together")
	}
	if h.Latitude != nil {
		if err := validateCoordinates(*h.Latitude, *h.Longitude); err != nil {
			return err
		}
	}
	return s.repo.Create(ctx, h)
}

func (s *Service) GetHospital(ctx context.Context, id int64) (*Hospital, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListHospitals(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByCity(ctx context.Context, city string) ([]*Hospital, error) {
	if strings.TrimSpace(city) == "" {
		return nil, apperr.Invalid("city is required")
	}
	return s.repo.ListByCity(ctx, city)
}

func (s *Service) ListByCityAndDistrict(ctx context.Context, city, district string) ([]*Hospital, error) {
	if strings.TrimSpace(city) == "" || strings.TrimSpace(district) == "" {
		return nil, apperr.Invalid("city and district are required")
	}
	return s.repo.ListByCityAndDistrict(ctx, city, district)
}

// Nearby returns hospitals inside the bounding box of radiusKm around
// (lat, lng). Corners of the box are farther than radiusKm; callers that
// need a true circle filter the result themselves.
func (s *Service) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]*Hospital, error) {
	if err := validateCoordinates(lat, lng); err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		return nil, apperr.Invalid("radius must be positive")
	}
	return s.repo.ListWithinBox(ctx, BoundingBox(lat, lng, radiusKm))
}

// BoundingBox approximates a radiusKm neighbourhood of (lat, lng).
func BoundingBox(lat, lng, radiusKm float64) Box {
	latDiff := radiusKm / kmPerDegree
	lngDiff := radiusKm / (kmPerDegree * math.Cos(lat*math.Pi/180))
	if math.IsInf(lngDiff, 0) || lngDiff > 180 {
		lngDiff = 180
	}
	return Box{
		MinLat: lat - latDiff,
		MaxLat: lat + latDiff,
		MinLng: lng - lngDiff,
		MaxLng: lng + lngDiff,
	}
}

func validateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return apperr.Invalid("latitude out of range: %v", lat)
	}
	if lng < -180 || lng > 180 {
		return apperr.Invalid("longitude out of range: %v", lng)
	}
	return nil
}
