// Package credentials owns user accounts: creation, profile edits, password
// changes and login verification. Passwords are bcrypt hashed before they
// reach a store.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/roleboard/internal/domain/user"
	"github.com/geocoder89/roleboard/internal/security"
	"github.com/google/uuid"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type Store interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	List(ctx context.Context, role *user.Role) ([]user.User, error)
	Update(ctx context.Context, id string, p user.Patch) (user.User, error)
	Delete(ctx context.Context, id string) error
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Create(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
	name := strings.TrimSpace(req.Name)
	email := user.NormalizeEmail(req.Email)

	if name == "" || email == "" || req.Password == "" {
		return user.User{}, user.ErrMissingField
	}
	if !req.Role.IsValid() {
		return user.User{}, user.ErrInvalidRole
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	return s.store.Create(ctx, user.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         req.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *Service) FindByID(ctx context.Context, id string) (user.User, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) FindByEmail(ctx context.Context, email string) (user.User, error) {
	return s.store.GetByEmail(ctx, user.NormalizeEmail(email))
}

// List returns users of role, or every user when role is nil.
func (s *Service) List(ctx context.Context, role *user.Role) ([]user.User, error) {
	return s.store.List(ctx, role)
}

func (s *Service) Update(ctx context.Context, id string, req user.UpdateUserRequest) (user.User, error) {
	var p user.Patch

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return user.User{}, user.ErrMissingField
		}
		p.Name = &name
	}
	if req.Email != nil {
		email := user.NormalizeEmail(*req.Email)
		if email == "" {
			return user.User{}, user.ErrMissingField
		}
		p.Email = &email
	}
	if req.Role != nil {
		if !req.Role.IsValid() {
			return user.User{}, user.ErrInvalidRole
		}
		role := *req.Role
		p.Role = &role
	}
	if req.Password != nil {
		hash, err := security.HashPassword(*req.Password)
		if err != nil {
			return user.User{}, fmt.Errorf("hash password: %w", err)
		}
		p.PasswordHash = &hash
	}

	return s.store.Update(ctx, id, p)
}

// UpdateProfile is the self-service subset of Update: name and email only.
func (s *Service) UpdateProfile(ctx context.Context, id string, req user.UpdateProfileRequest) (user.User, error) {
	return s.Update(ctx, id, user.UpdateUserRequest{Name: req.Name, Email: req.Email})
}

func (s *Service) SetPassword(ctx context.Context, id, plain string) error {
	_, err := s.Update(ctx, id, user.UpdateUserRequest{Password: &plain})
	return err
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) VerifyPassword(u user.User, plain string) bool {
	return security.CheckPassword(u.PasswordHash, plain) == nil
}

// Authenticate resolves email and checks plain against its hash. An unknown
// email and a wrong password both return ErrInvalidCredentials after one
// bcrypt comparison each.
func (s *Service) Authenticate(ctx context.Context, email, plain string) (user.User, error) {
	u, err := s.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			security.BurnCompare(plain)
			return user.User{}, ErrInvalidCredentials
		}
		return user.User{}, err
	}

	if !s.VerifyPassword(u, plain) {
		return user.User{}, ErrInvalidCredentials
	}
	return u, nil
}
