package hospital

import "context"

type Repository interface {
	Create(ctx context.Context, h *Hospital) error
	GetByID(ctx context.Context, id int64) (*Hospital, error)
	List(ctx context.Context, limit, offset int) ([]*Hospital, int, error)
	ListByCity(ctx context.Context, city string) ([]*Hospital, error)
	ListByCityAndDistrict(ctx context.Context, city, district string) ([]*Hospital, error)
	ListWithinBox(ctx context.Context, box Box) ([]*Hospital, error)
}
