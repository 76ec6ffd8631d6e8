package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/userhub/user-directory/internal/core/domain"
	"github.com/userhub/user-directory/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byID    map[string]*domain.User
	nextID  int
	failErr error // if set, every method returns this error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Insert(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.failErr != nil {
		return nil, r.failErr
	}
	for _, existing := range r.byID {
		if existing.Email == user.Email || existing.Username == user.Username {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	clone := cloneUser(user)
	clone.ID = fmt.Sprintf("u%04d", r.nextID)
	now := time.Now().UTC()
	clone.CreatedAt = now
	clone.UpdatedAt = now
	r.byID[clone.ID] = clone
	return cloneUser(clone), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.failErr != nil {
		return nil, r.failErr
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.failErr != nil {
		return nil, r.failErr
	}
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// sorted returns all users ordered ascending by id, mirroring the real
// Mongo query's sort.
func (r *stubUserRepo) sorted() []*domain.User {
	users := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		users = append(users, cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func pageOf(users []*domain.User, skip, take int) []*domain.User {
	if skip >= len(users) {
		return []*domain.User{}
	}
	end := skip + take
	if end > len(users) {
		end = len(users)
	}
	return users[skip:end]
}

func (r *stubUserRepo) List(_ context.Context, skip, take int) ([]*domain.User, int64, error) {
	if r.failErr != nil {
		return nil, 0, r.failErr
	}
	all := r.sorted()
	return pageOf(all, skip, take), int64(len(all)), nil
}

func (r *stubUserRepo) ListByUsername(_ context.Context, pattern string, skip, take int) ([]*domain.User, int64, error) {
	if r.failErr != nil {
		return nil, 0, r.failErr
	}
	var matched []*domain.User
	for _, u := range r.sorted() {
		if strings.Contains(u.Username, pattern) {
			matched = append(matched, u)
		}
	}
	return pageOf(matched, skip, take), int64(len(matched)), nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id, name, username string) error {
	if r.failErr != nil {
		return r.failErr
	}
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Name = name
	u.Username = username
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *stubUserRepo) UpdateRole(_ context.Context, id, role string) error {
	if r.failErr != nil {
		return r.failErr
	}
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if r.failErr != nil {
		return r.failErr
	}
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestService(repo *stubUserRepo) *UserService {
	creds := NewCredentialService("secret", time.Hour)
	return NewUserService(repo, creds, zerolog.Nop())
}

func mustRegister(t *testing.T, svc *UserService, name, username, email, password string) *domain.User {
	t.Helper()
	user, err := svc.Register(context.Background(), ports.RegisterInput{
		Name: name, Username: username, Email: email, Password: password,
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestUserService_Register(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(repo)

	user := mustRegister(t, svc, "Alice", "alice", "alice@example.com", "pass123")

	if user.ID == "" {
		t.Fatalf("expected assigned id")
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected role forced to %q, got %q", domain.RoleUser, user.Role)
	}
	if user.PasswordHash != "" {
		t.Fatalf("returned record must not carry the password hash")
	}

	stored := repo.byID[user.ID]
	if stored.PasswordHash == "" || stored.PasswordHash == "pass123" {
		t.Fatalf("stored password must be hashed, got %q", stored.PasswordHash)
	}
}

func TestUserService_Register_MissingFields(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	cases := []ports.RegisterInput{
		{Username: "a", Email: "a@x.com", Password: "p"},
		{Name: "A", Email: "a@x.com", Password: "p"},
		{Name: "A", Username: "a", Password: "p"},
		{Name: "A", Username: "a", Email: "a@x.com"},
	}
	for i, input := range cases {
		if _, err := svc.Register(context.Background(), input); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestUserService_Register_Duplicate(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	mustRegister(t, svc, "Bob", "bob", "bob@example.com", "pass")
	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Name: "Bobby", Username: "bob", Email: "bob2@example.com", Password: "pass",
	})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Lookups
// ---------------------------------------------------------------------------

func TestUserService_FindByID(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(repo)

	created := mustRegister(t, svc, "Carol", "carol", "carol@example.com", "pass")

	found, err := svc.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found == nil || found.Username != "carol" {
		t.Fatalf("unexpected user: %+v", found)
	}
	if found.PasswordHash != "" {
		t.Fatalf("read path leaked the password hash")
	}
}

func TestUserService_FindByID_AbsentIsEmpty(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	found, err := svc.FindByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("absence must not be an error, got %v", err)
	}
	if found != nil {
		t.Fatalf("expected empty result, got %+v", found)
	}
}

func TestUserService_FindByEmail(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	mustRegister(t, svc, "Dave", "dave", "dave@example.com", "pass")

	found, err := svc.FindByEmail(context.Background(), "dave@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if found == nil || found.Username != "dave" {
		t.Fatalf("unexpected user: %+v", found)
	}

	absent, err := svc.FindByEmail(context.Background(), "nobody@example.com")
	if err != nil || absent != nil {
		t.Fatalf("expected empty result without error, got (%+v, %v)", absent, err)
	}
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func seedUsers(t *testing.T, svc *UserService, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		mustRegister(t, svc,
			fmt.Sprintf("User %d", i),
			fmt.Sprintf("user%02d", i),
			fmt.Sprintf("user%02d@example.com", i),
			"pass")
	}
}

func TestUserService_List_PaginationMath(t *testing.T) {
	svc := newTestService(newStubUserRepo())
	seedUsers(t, svc, 5)

	res, err := svc.List(context.Background(), ports.ListUsersInput{Page: 1, Limit: 2, Route: "/api/users"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Meta.TotalItems != 5 {
		t.Errorf("total_items: expected 5, got %d", res.Meta.TotalItems)
	}
	if res.Meta.TotalPages != 3 {
		t.Errorf("total_pages: expected 3, got %d", res.Meta.TotalPages)
	}
	if len(res.Items) != 2 {
		t.Errorf("items: expected 2, got %d", len(res.Items))
	}
	if res.Items[0].ID >= res.Items[1].ID {
		t.Errorf("items must be ordered ascending by id: %s, %s", res.Items[0].ID, res.Items[1].ID)
	}
	if res.Links.Next == "" || res.Links.Last == "" {
		t.Errorf("expected next and last links on first of three pages: %+v", res.Links)
	}
}

func TestUserService_List_LimitCappedAt100(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	res, err := svc.List(context.Background(), ports.ListUsersInput{Page: 1, Limit: 150})
	if err != nil {
		t.Fatal(err)
	}
	if res.Meta.ItemsPerPage != 100 {
		t.Errorf("expected limit clamped to 100, got %d", res.Meta.ItemsPerPage)
	}
}

func TestUserService_List_EmptyRepository(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	res, err := svc.List(context.Background(), ports.ListUsersInput{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("empty repository must not error: %v", err)
	}
	if len(res.Items) != 0 {
		t.Errorf("expected no items, got %d", len(res.Items))
	}
	if res.Meta.TotalPages != 0 {
		t.Errorf("expected 0 total pages, got %d", res.Meta.TotalPages)
	}
}

func TestUserService_List_UsernameFilter(t *testing.T) {
	svc := newTestService(newStubUserRepo())
	mustRegister(t, svc, "Anna", "anna", "anna@example.com", "pass")
	mustRegister(t, svc, "Annabel", "annabel", "annabel@example.com", "pass")
	mustRegister(t, svc, "Zack", "zack", "zack@example.com", "pass")

	res, err := svc.List(context.Background(), ports.ListUsersInput{Page: 1, Limit: 10, Username: "anna"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Meta.TotalItems != 2 {
		t.Errorf("filtered total: expected 2, got %d", res.Meta.TotalItems)
	}
	if res.Meta.TotalPages != 1 {
		t.Errorf("filtered pages: expected 1, got %d", res.Meta.TotalPages)
	}

	// Substring matching is case-sensitive.
	upper, err := svc.List(context.Background(), ports.ListUsersInput{Page: 1, Limit: 10, Username: "ANNA"})
	if err != nil {
		t.Fatal(err)
	}
	if upper.Meta.TotalItems != 0 {
		t.Errorf("case-sensitive filter: expected 0, got %d", upper.Meta.TotalItems)
	}
}

func TestUserService_List_StripsHashes(t *testing.T) {
	svc := newTestService(newStubUserRepo())
	seedUsers(t, svc, 3)

	res, err := svc.List(context.Background(), ports.ListUsersInput{Page: 1, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	for _, u := range res.Items {
		if u.PasswordHash != "" {
			t.Fatalf("list leaked a password hash for %s", u.ID)
		}
	}
}

// ---------------------------------------------------------------------------
// Updates and deletion
// ---------------------------------------------------------------------------

func TestUserService_UpdateProfile(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(repo)

	created := mustRegister(t, svc, "Eve", "eve", "eve@example.com", "pass")
	storedHash := repo.byID[created.ID].PasswordHash

	updated, err := svc.UpdateProfile(context.Background(), created.ID, ports.ProfilePatch{
		Name: "Eve Updated", Username: "eve2",
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Name != "Eve Updated" || updated.Username != "eve2" {
		t.Fatalf("profile fields not applied: %+v", updated)
	}

	stored := repo.byID[created.ID]
	if stored.Email != "eve@example.com" {
		t.Errorf("email changed through profile update: %q", stored.Email)
	}
	if stored.Role != domain.RoleUser {
		t.Errorf("role changed through profile update: %q", stored.Role)
	}
	if stored.PasswordHash != storedHash {
		t.Errorf("password hash changed through profile update")
	}
}

func TestUserService_UpdateProfile_NotFound(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	if _, err := svc.UpdateProfile(context.Background(), "missing", ports.ProfilePatch{Name: "x"}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_UpdateRole(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	created := mustRegister(t, svc, "Finn", "finn", "finn@example.com", "pass")

	updated, err := svc.UpdateRole(context.Background(), created.ID, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	if updated.Role != domain.RoleAdmin {
		t.Fatalf("expected role %q, got %q", domain.RoleAdmin, updated.Role)
	}
}

func TestUserService_UpdateRole_InvalidRole(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	created := mustRegister(t, svc, "Gus", "gus", "gus@example.com", "pass")

	if _, err := svc.UpdateRole(context.Background(), created.ID, "superadmin"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUserService_UpdateRole_NotFound(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	if _, err := svc.UpdateRole(context.Background(), "missing", domain.RoleAdmin); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_Delete(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	created := mustRegister(t, svc, "Hana", "hana", "hana@example.com", "pass")

	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// Lookup after deletion is an empty result, not an error.
	found, err := svc.FindByID(context.Background(), created.ID)
	if err != nil || found != nil {
		t.Fatalf("expected empty result after delete, got (%+v, %v)", found, err)
	}

	// Deleting again is not idempotent.
	if err := svc.Delete(context.Background(), created.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on second delete, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestUserService_Login(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	created := mustRegister(t, svc, "Ivy", "ivy", "ivy@example.com", "s3cret")

	token, err := svc.Login(context.Background(), "ivy@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token, got empty")
	}

	creds := NewCredentialService("secret", time.Hour)
	claims, err := creds.ParseToken(token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.UserID != created.ID {
		t.Fatalf("token sub: expected %q, got %q", created.ID, claims.UserID)
	}
}

func TestUserService_Login_UniformFailure(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	mustRegister(t, svc, "Jo", "jo", "jo@example.com", "goodpass")

	_, wrongPass := svc.Login(context.Background(), "jo@example.com", "badpass")
	_, unknown := svc.Login(context.Background(), "ghost@example.com", "whatever")

	if !errors.Is(wrongPass, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPass)
	}
	if !errors.Is(unknown, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", unknown)
	}
}

func TestUserService_Login_StorageErrorPassesThrough(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(repo)

	repo.failErr = errors.New("connection reset")

	if _, err := svc.Login(context.Background(), "a@example.com", "p"); errors.Is(err, domain.ErrInvalidCredentials) || err == nil {
		t.Fatalf("storage failure must not masquerade as bad credentials, got %v", err)
	}
}
