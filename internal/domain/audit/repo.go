package audit

import "context"

type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	ListByClinic(ctx context.Context, clinicID string, since Window, limit, offset int) ([]*Entry, int, error)
}
