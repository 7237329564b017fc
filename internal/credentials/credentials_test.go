package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/geocoder89/roleboard/internal/domain/user"
	"github.com/geocoder89/roleboard/internal/repo/memory"
)

func newService() *Service {
	return NewService(memory.NewUsersRepo(memory.NewDB()))
}

func TestCreate_HashesAndNormalizes(t *testing.T) {
	s := newService()
	ctx := context.Background()

	u, err := s.Create(ctx, user.CreateUserRequest{Name: " Ann ", Email: " Ann@Example.COM", Password: "secret1", Role: user.RoleUser})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Email != "ann@example.com" || u.Name != "Ann" {
		t.Fatalf("not normalized: %+v", u)
	}
	if u.PasswordHash == "secret1" || u.PasswordHash == "" {
		t.Fatalf("password stored in clear")
	}
	if !s.VerifyPassword(u, "secret1") {
		t.Fatalf("expected password to verify")
	}
}

func TestCreate_Validation(t *testing.T) {
	s := newService()
	ctx := context.Background()

	tests := []struct {
		name string
		req  user.CreateUserRequest
		want error
	}{
		{"missing_name", user.CreateUserRequest{Email: "a@b.co", Password: "x", Role: user.RoleUser}, user.ErrMissingField},
		{"missing_password", user.CreateUserRequest{Name: "A", Email: "a@b.co", Role: user.RoleUser}, user.ErrMissingField},
		{"bad_role", user.CreateUserRequest{Name: "A", Email: "a@b.co", Password: "x", Role: "owner"}, user.ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Create(ctx, tt.req); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreate_DuplicateEmailIsCaseInsensitive(t *testing.T) {
	s := newService()
	ctx := context.Background()

	if _, err := s.Create(ctx, user.CreateUserRequest{Name: "A", Email: "a@example.com", Password: "secret1", Role: user.RoleUser}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := s.Create(ctx, user.CreateUserRequest{Name: "B", Email: "A@EXAMPLE.com", Password: "secret1", Role: user.RoleUser})
	if !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	s := newService()
	ctx := context.Background()

	_, _ = s.Create(ctx, user.CreateUserRequest{Name: "A", Email: "a@example.com", Password: "secret1", Role: user.RoleUser})

	if _, err := s.Authenticate(ctx, "A@example.com", "secret1"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if _, err := s.Authenticate(ctx, "a@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v", err)
	}
	if _, err := s.Authenticate(ctx, "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v", err)
	}
}

func TestUpdate_RehashesPassword(t *testing.T) {
	s := newService()
	ctx := context.Background()

	u, _ := s.Create(ctx, user.CreateUserRequest{Name: "A", Email: "a@example.com", Password: "secret1", Role: user.RoleUser})

	if err := s.SetPassword(ctx, u.ID, "newsecret"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	got, _ := s.FindByID(ctx, u.ID)
	if s.VerifyPassword(got, "secret1") || !s.VerifyPassword(got, "newsecret") {
		t.Fatalf("password not rotated")
	}

	bad := user.Role("root")
	if _, err := s.Update(ctx, u.ID, user.UpdateUserRequest{Role: &bad}); !errors.Is(err, user.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := s.Update(ctx, "missing", user.UpdateUserRequest{}); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
