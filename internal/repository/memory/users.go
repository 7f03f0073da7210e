package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/apartment_booking/internal/model"
	"github.com/Freeeeeet/apartment_booking/internal/repository"
)

type UserStore struct {
	db *DB
}

var _ repository.Users = (*UserStore)(nil)

func (s *UserStore) Create(ctx context.Context, u *model.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, existing := range s.db.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return fmt.Errorf("create user: %w", repository.ErrDuplicate)
		}
	}

	s.db.nextUserID++
	now := s.db.now()
	u.ID = s.db.nextUserID
	u.CreatedAt = now
	u.UpdatedAt = now
	s.db.users[u.ID] = *u

	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	u, ok := s.db.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	for _, u := range s.db.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *UserStore) List(ctx context.Context, page, perPage int) ([]*model.User, int64, error) {
	s.db.mu.RLock()
	users := make([]*model.User, 0, len(s.db.users))
	for _, u := range s.db.users {
		u := u
		users = append(users, &u)
	}
	s.db.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].ID > users[j].ID
	})

	return paginate(users, page, perPage), int64(len(users)), nil
}

func (s *UserStore) SetActive(ctx context.Context, id int64, active bool) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	u, ok := s.db.users[id]
	if !ok {
		return fmt.Errorf("user not found")
	}
	u.IsActive = active
	u.UpdatedAt = s.db.now()
	s.db.users[id] = u

	return nil
}

func (s *UserStore) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if u, ok := s.db.users[id]; ok {
		u.LastLogin = &at
		s.db.users[id] = u
	}
	return nil
}
