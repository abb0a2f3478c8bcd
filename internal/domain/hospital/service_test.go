package hospital

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/medbook/booking/pkg/apperr"
)

type mockRepo struct {
	items  map[int64]*Hospital
	nextID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[int64]*Hospital)}
}

func (m *mockRepo) Create(_ context.Context, h *Hospital) error {
	m.nextID++
	h.ID = m.nextID
	h.CreatedAt = time.Now()
	h.UpdatedAt = h.CreatedAt
	m.items[h.ID] = h
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Hospital, error) {
	h, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFound("hospital not found with ID: %d", id)
	}
	return h, nil
}

func (m *mockRepo) ordered() []*Hospital {
	var out []*Hospital
	for id := int64(1); id <= m.nextID; id++ {
		if h, ok := m.items[id]; ok {
			out = append(out, h)
		}
	}
	return out
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Hospital, int, error) {
	all := m.ordered()
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockRepo) ListByCity(_ context.Context, city string) ([]*Hospital, error) {
	var out []*Hospital
	for _, h := range m.ordered() {
		if h.City != nil && strings.EqualFold(*h.City, city) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *mockRepo) ListByCityAndDistrict(_ context.Context, city, district string) ([]*Hospital, error) {
	var out []*Hospital
	for _, h := range m.ordered() {
		if h.City != nil && h.District != nil &&
			strings.EqualFold(*h.City, city) && strings.EqualFold(*h.District, district) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *mockRepo) ListWithinBox(_ context.Context, box Box) ([]*Hospital, error) {
	var out []*Hospital
	for _, h := range m.ordered() {
		if h.Latitude != nil && box.Contains(*h.Latitude, *h.Longitude) {
			out = append(out, h)
		}
	}
	return out, nil
}

func newTestService() *Service {
	return NewService(newMockRepo())
}

func strPtr(s string) *string { return &s }
func fPtr(f float64) *float64 { return &f }

func TestService_CreateHospital(t *testing.T) {
	svc := newTestService()
	h := &Hospital{Name: " City Hospital ", City: strPtr("Ankara")}
	if err := svc.CreateHospital(context.Background(), h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.ID == 0 {
		t.Error("expected ID to be assigned")
	}
	if h.Name != "City Hospital" {
		t.Errorf("expected trimmed name, got %q", h.Name)
	}
}

func TestService_CreateHospital_NameRequired(t *testing.T) {
	svc := newTestService()
	err := svc.CreateHospital(context.Background(), &Hospital{})
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestService_CreateHospital_HalfCoordinates(t *testing.T) {
	svc := newTestService()
	err := svc.CreateHospital(context.Background(), &Hospital{Name: "X", Latitude: fPtr(39.9)})
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestService_CreateHospital_CoordinatesOutOfRange(t *testing.T) {
	svc := newTestService()
	err := svc.CreateHospital(context.Background(), &Hospital{Name: "X", Latitude: fPtr(91), Longitude: fPtr(0)})
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestService_GetHospital_NotFound(t *testing.T) {
	svc := newTestService()
	_, err := svc.GetHospital(context.Background(), 42)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_ListByCityAndDistrict(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	svc.CreateHospital(ctx, &Hospital{Name: "A", City: strPtr("Istanbul"), District: strPtr("Kadikoy")})
	svc.CreateHospital(ctx, &Hospital{Name: "B", City: strPtr("Istanbul"), District: strPtr("Besiktas")})
	svc.CreateHospital(ctx, &Hospital{Name: "C", City: strPtr("Izmir"), District: strPtr("Konak")})

	byCity, err := svc.ListByCity(ctx, "istanbul")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(byCity) != 2 {
		t.Errorf("expected 2 hospitals in Istanbul, got %d", len(byCity))
	}

	byDistrict, err := svc.ListByCityAndDistrict(ctx, "Istanbul", "Kadikoy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(byDistrict) != 1 || byDistrict[0].Name != "A" {
		t.Errorf("expected only A, got %+v", byDistrict)
	}

	if _, err := svc.ListByCity(ctx, " "); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("expected invalid argument for blank city, got %v", err)
	}
}

func TestService_Nearby(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	svc.CreateHospital(ctx, &Hospital{Name: "Near", Latitude: fPtr(41.01), Longitude: fPtr(28.98)})
	svc.CreateHospital(ctx, &Hospital{Name: "Far", Latitude: fPtr(39.93), Longitude: fPtr(32.85)})

	items, err := svc.Nearby(ctx, 41.0, 28.97, DefaultRadiusKm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Near" {
		t.Errorf("expected only Near, got %+v", items)
	}

	if _, err := svc.Nearby(ctx, 41.0, 28.97, 0); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("expected invalid argument for zero radius, got %v", err)
	}
}

func TestBoundingBox(t *testing.T) {
	box := BoundingBox(0, 10, 111)
	if math.Abs(box.MaxLat-1) > 1e-9 || math.Abs(box.MinLat+1) > 1e-9 {
		t.Errorf("expected +/-1 degree latitude, got %+v", box)
	}
	if math.Abs(box.MaxLng-11) > 1e-9 || math.Abs(box.MinLng-9) > 1e-9 {
		t.Errorf("expected +/-1 degree longitude at the equator, got %+v", box)
	}

	// Longitude span widens away from the equator.
	north := BoundingBox(60, 10, 111)
	if math.Abs((north.MaxLng-10)-2) > 1e-6 {
		t.Errorf("expected ~2 degrees longitude at 60N, got %v", north.MaxLng-10)
	}

	pole := BoundingBox(90, 0, 1)
	if pole.MaxLng != 180 || pole.MinLng != -180 {
		t.Errorf("expected full longitude span at the pole, got %+v", pole)
	}
}
