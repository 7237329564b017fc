package revocation

import (
	"context"
	"time"

	"github.com/geocoder89/roleboard/internal/cache"
)

type MemoryStore struct {
	c *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{c: cache.New()}
}

func (s *MemoryStore) Revoke(_ context.Context, jti string, until time.Time) error {
	s.c.SetUntil(jti, struct{}{}, until)
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := s.c.Get(jti)
	return ok, nil
}

func (s *MemoryStore) Consume(_ context.Context, jti string, until time.Time) (bool, error) {
	return s.c.SetIfAbsent(jti, struct{}{}, until), nil
}

func (s *MemoryStore) Release(_ context.Context, jti string) error {
	s.c.Delete(jti)
	return nil
}

// Sweep drops expired ids; cmd/api calls it on a ticker.
func (s *MemoryStore) Sweep() int {
	return s.c.Sweep()
}
