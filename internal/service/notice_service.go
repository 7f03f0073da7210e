package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/apartment_booking/internal/apperr"
	"github.com/Freeeeeet/apartment_booking/internal/auth"
	"github.com/Freeeeeet/apartment_booking/internal/model"
	"github.com/Freeeeeet/apartment_booking/internal/repository"
	"go.uber.org/zap"
)

type NoticeService struct {
	noticeRepo repository.Notices
	logger     *zap.Logger
}

func NewNoticeService(noticeRepo repository.Notices, logger *zap.Logger) *NoticeService {
	return &NoticeService{noticeRepo: noticeRepo, logger: logger}
}

type NoticeInput struct {
	Title       string
	Content     string
	Category    model.NoticeCategory
	IsPinned    bool
	IsPublished bool
}

type NoticeUpdate struct {
	Title       *string
	Content     *string
	Category    *model.NoticeCategory
	IsPinned    *bool
	IsPublished *bool
}

// Create публикует объявление от имени администратора
func (s *NoticeService) Create(ctx context.Context, actor auth.Identity, in NoticeInput) (*model.Notice, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("Only administrators can post notices.")
	}

	if in.Category == "" {
		in.Category = model.NoticeCategoryGeneral
	}

	notice := &model.Notice{
		AuthorID:    actor.UserID,
		Title:       strings.TrimSpace(in.Title),
		Content:     strings.TrimSpace(in.Content),
		Category:    in.Category,
		IsPinned:    in.IsPinned,
		IsPublished: in.IsPublished,
	}
	if err := validateNotice(notice); err != nil {
		return nil, err
	}

	if err := s.noticeRepo.Create(ctx, notice); err != nil {
		return nil, apperr.Persistence(fmt.Errorf("create notice: %w", err))
	}

	s.logger.Info("Notice created",
		zap.Int64("notice_id", notice.ID),
		zap.Int64("author_id", actor.UserID),
		zap.Bool("published", notice.IsPublished),
	)

	return notice, nil
}

// Get открывает объявление и увеличивает счётчик просмотров.
// Черновики видит только администратор.
func (s *NoticeService) Get(ctx context.Context, actor auth.Identity, id int64) (*model.Notice, error) {
	notice, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !notice.IsPublished && !actor.IsAdmin() {
		return nil, apperr.NotFound("notice", id)
	}

	if err := s.noticeRepo.IncrementViews(ctx, id); err != nil {
		s.logger.Warn("Failed to count notice view", zap.Int64("notice_id", id), zap.Error(err))
	} else {
		notice.ViewCount++
	}

	return notice, nil
}

// List закреплённые первыми; черновики только для администратора
func (s *NoticeService) List(ctx context.Context, actor auth.Identity, filter model.NoticeFilter) ([]*model.Notice, int64, error) {
	if !actor.IsAdmin() {
		filter.IncludeDrafts = false
	}
	if filter.Category != nil && !filter.Category.Valid() {
		return nil, 0, apperr.Validation("invalid_category", "Unknown notice category.")
	}
	filter.Normalize()

	items, total, err := s.noticeRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Persistence(fmt.Errorf("list notices: %w", err))
	}
	return items, total, nil
}

// Update частичное обновление объявления
func (s *NoticeService) Update(ctx context.Context, actor auth.Identity, id int64, in NoticeUpdate) (*model.Notice, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("Only administrators can edit notices.")
	}

	notice, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		notice.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		notice.Content = strings.TrimSpace(*in.Content)
	}
	if in.Category != nil {
		notice.Category = *in.Category
	}
	if in.IsPinned != nil {
		notice.IsPinned = *in.IsPinned
	}
	if in.IsPublished != nil {
		notice.IsPublished = *in.IsPublished
	}

	if err := validateNotice(notice); err != nil {
		return nil, err
	}

	if err := s.noticeRepo.Update(ctx, notice); err != nil {
		return nil, apperr.Persistence(fmt.Errorf("update notice: %w", err))
	}

	s.logger.Info("Notice updated", zap.Int64("notice_id", id), zap.Int64("actor_id", actor.UserID))
	return notice, nil
}

// Delete удаляет объявление
func (s *NoticeService) Delete(ctx context.Context, actor auth.Identity, id int64) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("Only administrators can delete notices.")
	}

	if _, err := s.get(ctx, id); err != nil {
		return err
	}

	if err := s.noticeRepo.Delete(ctx, id); err != nil {
		return apperr.Persistence(fmt.Errorf("delete notice: %w", err))
	}

	s.logger.Info("Notice deleted", zap.Int64("notice_id", id), zap.Int64("actor_id", actor.UserID))
	return nil
}

func (s *NoticeService) get(ctx context.Context, id int64) (*model.Notice, error) {
	notice, err := s.noticeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Persistence(fmt.Errorf("get notice: %w", err))
	}
	if notice == nil {
		return nil, apperr.NotFound("notice", id)
	}
	return notice, nil
}

func validateNotice(n *model.Notice) error {
	switch {
	case n.Title == "" || len([]rune(n.Title)) > 200:
		return apperr.Validation("invalid_title", "Title must be between 1 and 200 characters.")
	case n.Content == "":
		return apperr.Validation("invalid_content", "Content must not be empty.")
	case !n.Category.Valid():
		return apperr.Validation("invalid_category", "Unknown notice category.")
	}
	return nil
}
