package rest

import (
	"net/http"

	"github.com/Freeeeeet/apartment_booking/internal/model"
	"github.com/Freeeeeet/apartment_booking/internal/service"
	"github.com/gin-gonic/gin"
)

type noticeHandler struct {
	svc *service.NoticeService
}

type createNoticeRequest struct {
	Title       string               `json:"title" binding:"required,max=200"`
	Content     string               `json:"content" binding:"required"`
	Category    model.NoticeCategory `json:"category" binding:"omitempty,notice_category"`
	IsPinned    bool                 `json:"is_pinned"`
	IsPublished *bool                `json:"is_published"`
}

type updateNoticeRequest struct {
	Title       *string               `json:"title" binding:"omitempty,max=200"`
	Content     *string               `json:"content"`
	Category    *model.NoticeCategory `json:"category" binding:"omitempty,notice_category"`
	IsPinned    *bool                 `json:"is_pinned"`
	IsPublished *bool                 `json:"is_published"`
}

// GET /api/notices?category&include_drafts&page&per_page
func (h *noticeHandler) List(c *gin.Context) {
	var filter model.NoticeFilter
	if s := c.Query("category"); s != "" {
		category := model.NoticeCategory(s)
		filter.Category = &category
	}
	filter.IncludeDrafts = c.Query("include_drafts") == "true"

	var err error
	if filter.Page, filter.PerPage, err = pageParams(c); err != nil {
		respondError(c, err)
		return
	}
	filter.Normalize()

	items, total, err := h.svc.List(c.Request.Context(), identity(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newList(items, total, filter.Page, filter.PerPage))
}

// GET /api/notices/:id
func (h *noticeHandler) Get(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	notice, err := h.svc.Get(c.Request.Context(), identity(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, notice)
}

// POST /api/notices
func (h *noticeHandler) Create(c *gin.Context) {
	var in createNoticeRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, bindError(err))
		return
	}

	// По умолчанию объявление публикуется сразу
	published := true
	if in.IsPublished != nil {
		published = *in.IsPublished
	}

	notice, err := h.svc.Create(c.Request.Context(), identity(c), service.NoticeInput{
		Title:       in.Title,
		Content:     in.Content,
		Category:    in.Category,
		IsPinned:    in.IsPinned,
		IsPublished: published,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, notice)
}

// PUT /api/notices/:id
func (h *noticeHandler) Update(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var in updateNoticeRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, bindError(err))
		return
	}

	notice, err := h.svc.Update(c.Request.Context(), identity(c), id, service.NoticeUpdate{
		Title:       in.Title,
		Content:     in.Content,
		Category:    in.Category,
		IsPinned:    in.IsPinned,
		IsPublished: in.IsPublished,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, notice)
}

// DELETE /api/notices/:id
func (h *noticeHandler) Delete(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), identity(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

