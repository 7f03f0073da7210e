package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/apartment_booking/internal/model"
	"github.com/Freeeeeet/apartment_booking/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const noticeColumns = `id, author_id, title, content, category, is_pinned, is_published, view_count, created_at, updated_at`

type NoticeRepository struct {
	*base.Repository
}

func NewNoticeRepository(pool *pgxpool.Pool) *NoticeRepository {
	return &NoticeRepository{Repository: base.NewRepository(pool)}
}

// Create создаёт объявление
func (r *NoticeRepository) Create(ctx context.Context, n *model.Notice) error {
	query := `
		INSERT INTO notices (author_id, title, content, category, is_pinned, is_published)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, view_count, created_at, updated_at
	`

	err := r.QueryRow(ctx, query, n.AuthorID, n.Title, n.Content, n.Category, n.IsPinned, n.IsPublished).
		Scan(&n.ID, &n.ViewCount, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create notice: %w", err)
	}

	return nil
}

// GetByID получает объявление по ID
func (r *NoticeRepository) GetByID(ctx context.Context, id int64) (*model.Notice, error) {
	n, err := scanNotice(r.QueryRow(ctx, `SELECT `+noticeColumns+` FROM notices WHERE id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get notice: %w", err)
	}
	return n, nil
}

// List закреплённые объявления идут первыми
func (r *NoticeRepository) List(ctx context.Context, filter model.NoticeFilter) ([]*model.Notice, int64, error) {
	filter.Normalize()

	where := `WHERE ($1::text IS NULL OR category = $1) AND ($2 OR is_published)`
	var category *string
	if filter.Category != nil {
		c := string(*filter.Category)
		category = &c
	}

	total, err := r.Count(ctx, `SELECT COUNT(*) FROM notices `+where, category, filter.IncludeDrafts)
	if err != nil {
		return nil, 0, fmt.Errorf("count notices: %w", err)
	}

	rows, err := r.Query(ctx, `
		SELECT `+noticeColumns+`
		FROM notices
		`+where+`
		ORDER BY is_pinned DESC, created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`, category, filter.IncludeDrafts, filter.PerPage, (filter.Page-1)*filter.PerPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list notices: %w", err)
	}
	defer rows.Close()

	var notices []*model.Notice
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan notice: %w", err)
		}
		notices = append(notices, n)
	}

	return notices, total, rows.Err()
}

// Update обновляет объявление
func (r *NoticeRepository) Update(ctx context.Context, n *model.Notice) error {
	query := `
		UPDATE notices
		SET title = $1, content = $2, category = $3, is_pinned = $4, is_published = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`

	err := r.QueryRow(ctx, query, n.Title, n.Content, n.Category, n.IsPinned, n.IsPublished, n.ID).Scan(&n.UpdatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("notice not found")
		}
		return fmt.Errorf("update notice: %w", err)
	}

	return nil
}

// Delete удаляет объявление
func (r *NoticeRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM notices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete notice: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("notice not found")
	}

	return nil
}

// IncrementViews увеличивает счётчик просмотров
func (r *NoticeRepository) IncrementViews(ctx context.Context, id int64) error {
	if _, err := r.ExecAffected(ctx, `UPDATE notices SET view_count = view_count + 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("increment notice views: %w", err)
	}
	return nil
}

func scanNotice(row pgx.Row) (*model.Notice, error) {
	var n model.Notice
	err := row.Scan(
		&n.ID,
		&n.AuthorID,
		&n.Title,
		&n.Content,
		&n.Category,
		&n.IsPinned,
		&n.IsPublished,
		&n.ViewCount,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
