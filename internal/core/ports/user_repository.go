package ports

import (
	"context"

	"github.com/userhub/user-directory/internal/core/domain"
)

// UserRepository defines persistence operations for user records.
// Implementations return domain.ErrUserNotFound / domain.ErrUserExists for
// the corresponding conditions and wrap any storage failure with context.
type UserRepository interface {
	// Insert persists a new record and returns it with the assigned ID.
	Insert(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// List returns a page of records ordered ascending by id, plus the
	// total unfiltered count.
	List(ctx context.Context, skip, take int) ([]*domain.User, int64, error)
	// ListByUsername returns a page of records whose username contains
	// pattern (case-sensitive), ordered ascending by id, plus the count of
	// the filtered set.
	ListByUsername(ctx context.Context, pattern string, skip, take int) ([]*domain.User, int64, error)
	// UpdateProfile writes name and username only. Email, password hash and
	// role are not reachable through this method.
	UpdateProfile(ctx context.Context, id, name, username string) error
	// UpdateRole writes the role field only.
	UpdateRole(ctx context.Context, id, role string) error
	Delete(ctx context.Context, id string) error
}
