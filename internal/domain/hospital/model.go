package hospital

import "time"

// Hospital is a facility that doctors belong to. Coordinates are optional
// but, when present, are always set together.
type Hospital struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	City      *string   `json:"city,omitempty"`
	District  *string   `json:"district,omitempty"`
	Address   *string   `json:"address,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Box is a latitude/longitude bounding box, inclusive on every edge.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

func (b Box) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}
