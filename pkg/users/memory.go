package users

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pathfinders/auth-service/pkg/auth"
)

// MemoryStore is an in-memory Store used in tests and local development.
// Email lookups are case-insensitive, matching the unique index the
// Postgres store enforces.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*auth.User
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, byID: make(map[int64]*auth.User)}
}

func (s *MemoryStore) Create(ctx context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	for _, u := range s.byID {
		if strings.ToLower(u.Email) == email {
			return ErrDuplicateEmail
		}
	}

	if user.Role == "" {
		user.Role = auth.RoleUser
	}
	if user.Status == "" {
		user.Status = auth.StatusActive
	}

	user.ID = s.nextID
	s.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	clone := *user
	s.byID[user.ID] = &clone
	return nil
}

func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(email)
	for _, u := range s.byID {
		if strings.ToLower(u.Email) == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetByID(ctx context.Context, id int64) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *MemoryStore) SetRefreshToken(ctx context.Context, id int64, token string) error {
	return s.update(id, func(u *auth.User) {
		u.RefreshToken = token
	})
}

func (s *MemoryStore) ClearRefreshToken(ctx context.Context, id int64) error {
	return s.update(id, func(u *auth.User) {
		u.RefreshToken = ""
	})
}

func (s *MemoryStore) TouchLastActive(ctx context.Context, id int64) error {
	return s.update(id, func(u *auth.User) {
		now := time.Now()
		u.LastActive = &now
	})
}

func (s *MemoryStore) SetResetToken(ctx context.Context, id int64, tokenHash string, expires time.Time) error {
	return s.update(id, func(u *auth.User) {
		u.ResetTokenHash = tokenHash
		u.ResetTokenExpires = &expires
	})
}

func (s *MemoryStore) ResetPassword(ctx context.Context, tokenHash, passwordHash string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.byID {
		if u.ResetTokenHash == tokenHash && u.ResetTokenExpires != nil && u.ResetTokenExpires.After(time.Now()) {
			u.PasswordHash = passwordHash
			u.ResetTokenHash = ""
			u.ResetTokenExpires = nil
			u.UpdatedAt = time.Now()
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) PurgeExpiredResetTokens(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, u := range s.byID {
		if u.ResetTokenExpires != nil && !u.ResetTokenExpires.After(time.Now()) {
			u.ResetTokenHash = ""
			u.ResetTokenExpires = nil
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) update(id int64, fn func(*auth.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return nil
}
