package memory

import (
	"context"

	"github.com/geocoder89/roleboard/internal/domain/user"
)

type UsersRepo struct {
	db *DB
}

func NewUsersRepo(db *DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.users {
		if existing.Email == u.Email {
			return user.User{}, user.ErrEmailTaken
		}
	}

	u.Tasks = nil
	r.db.users[u.ID] = u
	r.db.userOrder = append(r.db.userOrder, u.ID)

	u.Tasks = []string{}
	return u, nil
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	u.Tasks = r.db.taskIDsFor(id)
	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, id := range r.db.userOrder {
		u := r.db.users[id]
		if u.Email == email {
			u.Tasks = r.db.taskIDsFor(id)
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) List(_ context.Context, role *user.Role) ([]user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]user.User, 0, len(r.db.userOrder))
	for _, id := range r.db.userOrder {
		u := r.db.users[id]
		if role != nil && u.Role != *role {
			continue
		}
		u.Tasks = r.db.taskIDsFor(id)
		out = append(out, u)
	}
	return out, nil
}

func (r *UsersRepo) Update(_ context.Context, id string, p user.Patch) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if p.Email != nil && *p.Email != u.Email {
		for otherID, other := range r.db.users {
			if otherID != id && other.Email == *p.Email {
				return user.User{}, user.ErrEmailTaken
			}
		}
		u.Email = *p.Email
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	u.UpdatedAt = r.db.now()

	r.db.users[id] = u
	u.Tasks = r.db.taskIDsFor(id)
	return u, nil
}

// Delete removes the user only. Tasks keep their now dangling assignee.
func (r *UsersRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(r.db.users, id)
	r.db.userOrder = removeID(r.db.userOrder, id)
	return nil
}
