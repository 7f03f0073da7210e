package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Freeeeeet/apartment_booking/internal/model"
	"github.com/Freeeeeet/apartment_booking/internal/repository"
)

type NoticeStore struct {
	db *DB
}

var _ repository.Notices = (*NoticeStore)(nil)

func (s *NoticeStore) Create(ctx context.Context, n *model.Notice) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	s.db.nextNoticeID++
	now := s.db.now()
	n.ID = s.db.nextNoticeID
	n.ViewCount = 0
	n.CreatedAt = now
	n.UpdatedAt = now
	s.db.notices[n.ID] = *n

	return nil
}

func (s *NoticeStore) GetByID(ctx context.Context, id int64) (*model.Notice, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	n, ok := s.db.notices[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

// List закреплённые первыми, затем новые
func (s *NoticeStore) List(ctx context.Context, filter model.NoticeFilter) ([]*model.Notice, int64, error) {
	filter.Normalize()

	s.db.mu.RLock()
	var notices []*model.Notice
	for _, n := range s.db.notices {
		if filter.Category != nil && n.Category != *filter.Category {
			continue
		}
		if !filter.IncludeDrafts && !n.IsPublished {
			continue
		}
		n := n
		notices = append(notices, &n)
	}
	s.db.mu.RUnlock()

	sort.Slice(notices, func(i, j int) bool {
		a, b := notices[i], notices[j]
		if a.IsPinned != b.IsPinned {
			return a.IsPinned
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	return paginate(notices, filter.Page, filter.PerPage), int64(len(notices)), nil
}

func (s *NoticeStore) Update(ctx context.Context, n *model.Notice) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	existing, ok := s.db.notices[n.ID]
	if !ok {
		return fmt.Errorf("notice not found")
	}
	n.ViewCount = existing.ViewCount
	n.CreatedAt = existing.CreatedAt
	n.UpdatedAt = s.db.now()
	s.db.notices[n.ID] = *n

	return nil
}

func (s *NoticeStore) Delete(ctx context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.notices[id]; !ok {
		return fmt.Errorf("notice not found")
	}
	delete(s.db.notices, id)

	return nil
}

func (s *NoticeStore) IncrementViews(ctx context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if n, ok := s.db.notices[id]; ok {
		n.ViewCount++
		s.db.notices[id] = n
	}
	return nil
}
