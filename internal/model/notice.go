package model

import "time"

type NoticeCategory string

const (
	NoticeCategoryGeneral     NoticeCategory = "general"
	NoticeCategoryMaintenance NoticeCategory = "maintenance" // Плановые работы
	NoticeCategoryEvent       NoticeCategory = "event"
	NoticeCategoryUrgent      NoticeCategory = "urgent"
)

func (c NoticeCategory) Valid() bool {
	switch c {
	case NoticeCategoryGeneral, NoticeCategoryMaintenance, NoticeCategoryEvent, NoticeCategoryUrgent:
		return true
	}
	return false
}

type Notice struct {
	ID          int64          `json:"id"`
	AuthorID    int64          `json:"author_id"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Category    NoticeCategory `json:"category"`
	IsPinned    bool           `json:"is_pinned"`
	IsPublished bool           `json:"is_published"`
	ViewCount   int64          `json:"view_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type NoticeFilter struct {
	Category      *NoticeCategory
	IncludeDrafts bool
	Page          int
	PerPage       int
}

func (f *NoticeFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage <= 0 || f.PerPage > 100 {
		f.PerPage = 20
	}
}
