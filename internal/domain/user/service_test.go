package user

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/medbook/booking/internal/platform/auth"
	"github.com/medbook/booking/pkg/apperr"
)

type mockUserRepo struct {
	users  map[int64]*User
	nextID int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email || existing.PublicID == u.PublicID {
			return apperr.Conflict("email or public id already in use")
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found with ID: %d", id)
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) GetByPublicID(_ context.Context, publicID uuid.UUID) (*User, error) {
	for _, u := range m.users {
		if u.PublicID == publicID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("user not found: %s", publicID)
}

func (m *mockUserRepo) Update(_ context.Context, u *User) error {
	if _, ok := m.users[u.ID]; !ok {
		return apperr.NotFound("user not found with ID: %d", u.ID)
	}
	for id, existing := range m.users {
		if id != u.ID && existing.Email == u.Email {
			return apperr.Conflict("email already in use: %s", u.Email)
		}
	}
	u.UpdatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return apperr.NotFound("user not found with ID: %d", id)
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	var all []*User
	for id := int64(1); id <= m.nextID; id++ {
		if u, ok := m.users[id]; ok {
			all = append(all, u)
		}
	}
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

func newTestService() *Service {
	return NewService(newMockUserRepo(), auth.NewBcryptHasher(bcrypt.MinCost), zerolog.Nop())
}

func mustCreate(t *testing.T, svc *Service, email string) *User {
	t.Helper()
	u, err := svc.CreateUser(context.Background(), CreateRequest{Name: "Ayse", Email: email, Password: "password123"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestService_CreateUser(t *testing.T) {
	svc := newTestService()
	u, err := svc.CreateUser(context.Background(), CreateRequest{
		Name: " Ayse Yilmaz ", Email: "Ayse@Example.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID == 0 || u.PublicID == uuid.Nil {
		t.Errorf("expected ids to be assigned, got %d / %s", u.ID, u.PublicID)
	}
	if u.Email != "ayse@example.com" || u.Name != "Ayse Yilmaz" {
		t.Errorf("expected normalized profile, got %q %q", u.Name, u.Email)
	}
	if u.PasswordHash == "" || u.PasswordHash == "password123" {
		t.Error("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")); err != nil {
		t.Errorf("expected bcrypt hash of the password: %v", err)
	}
}

func TestService_CreateUser_KeepsGivenPublicID(t *testing.T) {
	svc := newTestService()
	pid := uuid.New()
	u, err := svc.CreateUser(context.Background(), CreateRequest{
		PublicID: pid.String(), Name: "Ali", Email: "ali@example.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.PublicID != pid {
		t.Errorf("expected public id %s, got %s", pid, u.PublicID)
	}
}

func TestService_CreateUser_DuplicateEmail(t *testing.T) {
	svc := newTestService()
	mustCreate(t, svc, "dup@example.com")
	_, err := svc.CreateUser(context.Background(), CreateRequest{Name: "Other", Email: "DUP@example.com", Password: "password123"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestService_CreateUser_Validation(t *testing.T) {
	svc := newTestService()
	cases := map[string]CreateRequest{
		"missing name":   {Email: "a@example.com", Password: "password123"},
		"missing email":  {Name: "A", Password: "password123"},
		"bad email":      {Name: "A", Email: "not-an-email", Password: "password123"},
		"short password": {Name: "A", Email: "a@example.com", Password: "short"},
		"long password":  {Name: "A", Email: "a@example.com", Password: strings.Repeat("p", 80)},
		"multibyte over": {Name: "A", Email: "a@example.com", Password: strings.Repeat("ş", 37)},
		"bad public id":  {PublicID: "xyz", Name: "A", Email: "a@example.com", Password: "password123"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateUser(context.Background(), req)
			if !errors.Is(err, apperr.ErrInvalidArgument) {
				t.Errorf("expected invalid argument, got %v", err)
			}
		})
	}
}

func TestService_GetUserByPublicID(t *testing.T) {
	svc := newTestService()
	u := mustCreate(t, svc, "get@example.com")

	got, err := svc.GetUserByPublicID(context.Background(), u.PublicID.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("expected user %d, got %d", u.ID, got.ID)
	}

	for _, pid := range []string{uuid.NewString(), "garbage"} {
		if _, err := svc.GetUserByPublicID(context.Background(), pid); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("expected not found for %q, got %v", pid, err)
		}
	}
}

func TestService_UpdateUser_KeepsPasswordWhenBlank(t *testing.T) {
	svc := newTestService()
	u := mustCreate(t, svc, "keep@example.com")

	updated, err := svc.UpdateUser(context.Background(), u.PublicID.String(),
		UpdateRequest{Name: "Renamed", Email: "keep@example.com"}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != "Renamed" {
		t.Errorf("expected new name, got %q", updated.Name)
	}
	if updated.PasswordHash != u.PasswordHash {
		t.Error("expected password hash to be unchanged")
	}
}

func TestService_UpdateUser_PasswordChange(t *testing.T) {
	svc := newTestService()
	u := mustCreate(t, svc, "pw@example.com")
	ctx := context.Background()
	pid := u.PublicID.String()

	_, err := svc.UpdateUser(ctx, pid, UpdateRequest{Name: "A", Email: "pw@example.com", Password: "newpassword1"}, true)
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected current password to be required, got %v", err)
	}

	_, err = svc.UpdateUser(ctx, pid, UpdateRequest{
		Name: "A", Email: "pw@example.com", Password: "newpassword1", CurrentPassword: "wrong-password",
	}, true)
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected wrong current password to be rejected, got %v", err)
	}

	updated, err := svc.UpdateUser(ctx, pid, UpdateRequest{
		Name: "A", Email: "pw@example.com", Password: "newpassword1", CurrentPassword: "password123",
	}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("newpassword1")) != nil {
		t.Error("expected hash of the new password")
	}

	// Staff resets skip the current password check.
	if _, err := svc.UpdateUser(ctx, pid, UpdateRequest{Name: "A", Email: "pw@example.com", Password: "resetpass99"}, false); err != nil {
		t.Errorf("unexpected error on staff reset: %v", err)
	}
}

func TestService_UpdateUser_PasswordTooLong(t *testing.T) {
	svc := newTestService()
	u := mustCreate(t, svc, "long@example.com")

	_, err := svc.UpdateUser(context.Background(), u.PublicID.String(), UpdateRequest{
		Name: "A", Email: "long@example.com", Password: strings.Repeat("p", 80),
	}, false)
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestService_UpdateUser_EmailTaken(t *testing.T) {
	svc := newTestService()
	mustCreate(t, svc, "first@example.com")
	second := mustCreate(t, svc, "second@example.com")

	_, err := svc.UpdateUser(context.Background(), second.PublicID.String(),
		UpdateRequest{Name: "B", Email: "first@example.com"}, false)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestService_DeleteUser(t *testing.T) {
	svc := newTestService()
	u := mustCreate(t, svc, "bye@example.com")
	ctx := context.Background()

	if err := svc.DeleteUser(ctx, u.PublicID.String()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.DeleteUser(ctx, u.PublicID.String()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}
