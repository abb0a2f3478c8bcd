package doctor

import "context"

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id int64) (*Doctor, error)
	List(ctx context.Context, limit, offset int) ([]*Doctor, int, error)
	SearchBySpecialty(ctx context.Context, specialty string, limit, offset int) ([]*Doctor, int, error)
}
