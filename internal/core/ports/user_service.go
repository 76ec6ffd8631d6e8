package ports

import (
	"context"

	"github.com/userhub/user-directory/internal/core/domain"
)

// RegisterInput carries the data needed to create a new user account.
// Role is not accepted here: new accounts always start as domain.RoleUser.
type RegisterInput struct {
	Name     string
	Username string
	Email    string
	Password string
}

// ProfilePatch carries the profile fields a user may change about
// themselves. Email, password and role are deliberately not representable.
type ProfilePatch struct {
	Name     string
	Username string
}

// ListUsersInput carries all parameters for the list endpoint.
type ListUsersInput struct {
	Page  int // 1-based
	Limit int // capped at 100 by the service
	// Username, when non-empty, restricts the listing to records whose
	// username contains it (case-sensitive substring match).
	Username string
	// Route is the base route used to build navigation links,
	// e.g. "https://api.example.com/api/users".
	Route string
}

// PageMeta describes the position of a page within the full result set.
type PageMeta struct {
	CurrentPage  int   `json:"current_page"`
	ItemCount    int   `json:"item_count"`
	ItemsPerPage int   `json:"items_per_page"`
	TotalItems   int64 `json:"total_items"`
	TotalPages   int   `json:"total_pages"`
}

// PageLinks holds navigation links derived from the base route.
// Previous and Next are empty at the respective boundaries.
type PageLinks struct {
	First    string `json:"first"`
	Previous string `json:"previous"`
	Next     string `json:"next"`
	Last     string `json:"last"`
}

// ListUsersResult is returned by List.
type ListUsersResult struct {
	Items []*domain.User
	Meta  PageMeta
	Links PageLinks
}

// UserService defines the directory use cases. Every returned user record
// has its password hash stripped.
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	// FindByID returns (nil, nil) when no record matches: absence on the
	// read paths is an empty result, not an error.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, input ListUsersInput) (*ListUsersResult, error)
	UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*domain.User, error)
	UpdateRole(ctx context.Context, id, role string) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	Login(ctx context.Context, email, password string) (string, error)
}
