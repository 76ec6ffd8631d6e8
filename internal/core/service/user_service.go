package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/userhub/user-directory/internal/core/domain"
	"github.com/userhub/user-directory/internal/core/ports"
)

// UserService orchestrates the user-record lifecycle. It is stateless;
// every operation is a sequence of independent calls against the
// repository with no locks held in between.
type UserService struct {
	repo   ports.UserRepository
	creds  ports.CredentialService
	logger zerolog.Logger
}

func NewUserService(repo ports.UserRepository, creds ports.CredentialService, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, creds: creds, logger: logger}
}

// Register creates a new account. The role is always forced to
// domain.RoleUser and the password is hashed before it reaches storage.
func (s *UserService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	if input.Name == "" || input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	hash, err := s.creds.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Insert(ctx, &domain.User{
		Name:         input.Name,
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return created.Stripped(), nil
}

// FindByID returns the stripped record, or (nil, nil) when absent:
// absence on the read paths is an empty result, not an error.
func (s *UserService) FindByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user.Stripped(), nil
}

// FindByEmail mirrors FindByID, keyed by email.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user.Stripped(), nil
}

// List returns one page of users ordered ascending by id. When a username
// filter is present the pagination metadata is derived from the filtered
// count instead of the repository's unfiltered total.
func (s *UserService) List(ctx context.Context, input ports.ListUsersInput) (*ports.ListUsersResult, error) {
	page, limit := clampPaging(input.Page, input.Limit)
	skip := (page - 1) * limit

	var (
		users []*domain.User
		total int64
		err   error
	)
	if input.Username == "" {
		users, total, err = s.repo.List(ctx, skip, limit)
	} else {
		users, total, err = s.repo.ListByUsername(ctx, input.Username, skip, limit)
	}
	if err != nil {
		return nil, err
	}

	items := make([]*domain.User, len(users))
	for i, u := range users {
		items[i] = u.Stripped()
	}

	meta := newPageMeta(page, limit, len(items), total)
	return &ports.ListUsersResult{
		Items: items,
		Meta:  meta,
		Links: buildPageLinks(input.Route, page, limit, meta.TotalPages),
	}, nil
}

// UpdateProfile applies the patch to the stored record and returns the
// refreshed stripped record. The patch type cannot carry email, password
// or role, so this path can never change login- or privilege-critical
// fields.
func (s *UserService) UpdateProfile(ctx context.Context, id string, patch ports.ProfilePatch) (*domain.User, error) {
	if err := s.repo.UpdateProfile(ctx, id, patch.Name, patch.Username); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Stripped(), nil
}

// UpdateRole writes the role field only. The admin role gate is enforced
// by the transport-layer guards before this method runs.
func (s *UserService) UpdateRole(ctx context.Context, id, role string) (*domain.User, error) {
	if !domain.ValidRole(role) {
		return nil, domain.ErrInvalidInput
	}

	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", id).Str("role", role).Msg("user role updated")
	return user.Stripped(), nil
}

// Delete removes the record. Deleting an id that does not exist fails
// with domain.ErrUserNotFound; the operation is not idempotent.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

// Login verifies the credentials and issues a session token. An unknown
// email and a wrong password collapse to the same error so the response
// never reveals which check failed.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	if !s.creds.CheckPassword(password, user.PasswordHash) {
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.creds.IssueToken(user.Stripped())
	if err != nil {
		return "", err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")
	return token, nil
}
