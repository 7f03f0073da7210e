package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/Freeeeeet/apartment_booking/internal/apperr"
	"github.com/Freeeeeet/apartment_booking/internal/auth"
	"github.com/Freeeeeet/apartment_booking/internal/model"
	"github.com/Freeeeeet/apartment_booking/internal/render"
	"github.com/Freeeeeet/apartment_booking/internal/service"
	"github.com/gin-gonic/gin"
)

type reservationHandler struct {
	svc   *service.ReservationService
	clock service.Clock
	loc   *time.Location
}

type createReservationRequest struct {
	Category    model.Category `json:"category" binding:"required,category"`
	StartTime   time.Time      `json:"start_time" binding:"required"`
	EndTime     time.Time      `json:"end_time" binding:"required"`
	Description *string        `json:"description" binding:"omitempty,max=500"`
}

type updateReservationRequest struct {
	Category    *model.Category `json:"category" binding:"omitempty,category"`
	StartTime   *time.Time      `json:"start_time"`
	EndTime     *time.Time      `json:"end_time"`
	Description *string         `json:"description" binding:"omitempty,max=500"`
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// POST /api/reservations
func (h *reservationHandler) Create(c *gin.Context) {
	var in createReservationRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, bindError(err))
		return
	}

	res, err := h.svc.Create(c.Request.Context(), identity(c), service.CreateInput{
		Category:    in.Category,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Description: in.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

// GET /api/reservations?status&category&user_id&from&to&page&per_page
func (h *reservationHandler) List(c *gin.Context) {
	var filter model.ReservationFilter

	if s := c.Query("status"); s != "" {
		status := model.Status(s)
		if !status.Valid() {
			respondError(c, apperr.Validation("invalid_status", "Unknown reservation status."))
			return
		}
		filter.Status = &status
	}
	if s := c.Query("category"); s != "" {
		category := model.Category(s)
		if !category.Valid() {
			respondError(c, apperr.Validation(service.RuleInvalidCategory, "Unknown reservation category."))
			return
		}
		filter.Category = &category
	}

	userID, err := queryInt(c, "user_id")
	if err != nil {
		respondError(c, err)
		return
	}
	if userID > 0 {
		uid := int64(userID)
		filter.UserID = &uid
	}

	if filter.From, err = queryTime(c, "from", h.loc); err != nil {
		respondError(c, err)
		return
	}
	if filter.To, err = queryTime(c, "to", h.loc); err != nil {
		respondError(c, err)
		return
	}
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

// GET /api/reservations/:id
func (h *reservationHandler) Get(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.svc.Get(c.Request.Context(), identity(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// PUT /api/reservations/:id
func (h *reservationHandler) Update(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var in updateReservationRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, bindError(err))
		return
	}

	res, err := h.svc.Update(c.Request.Context(), identity(c), id, service.UpdateInput{
		Category:    in.Category,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Description: in.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// POST /api/reservations/:id/cancel
func (h *reservationHandler) Cancel(c *gin.Context) {
	h.transition(c, h.svc.Cancel)
}

// POST /api/reservations/:id/approve
func (h *reservationHandler) Approve(c *gin.Context) {
	h.transition(c, h.svc.Approve)
}

// POST /api/reservations/:id/complete
func (h *reservationHandler) Complete(c *gin.Context) {
	h.transition(c, h.svc.Complete)
}

// POST /api/reservations/:id/reject
func (h *reservationHandler) Reject(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var in rejectRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, apperr.Validation("comment_required", "A reason is required to reject a reservation."))
		return
	}

	res, err := h.svc.Reject(c.Request.Context(), identity(c), id, in.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// DELETE /api/reservations/:id
func (h *reservationHandler) Delete(c *gin.Context) {
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

// GET /api/reservations/conflicts/check?category&start&end[&exclude_id]
func (h *reservationHandler) CheckConflict(c *gin.Context) {
	start, err := queryTime(c, "start", h.loc)
	if err != nil {
		respondError(c, err)
		return
	}
	end, err := queryTime(c, "end", h.loc)
	if err != nil {
		respondError(c, err)
		return
	}
	if start == nil || end == nil {
		respondError(c, apperr.Validation("invalid_query", "start and end are required."))
		return
	}

	excludeID, err := queryInt(c, "exclude_id")
	if err != nil {
		respondError(c, err)
		return
	}
	var exclude *int64
	if excludeID > 0 {
		id := int64(excludeID)
		exclude = &id
	}

	interval := model.Interval{Category: model.Category(c.Query("category")), Start: *start, End: *end}
	check, err := h.svc.CheckConflict(c.Request.Context(), interval, exclude)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, check)
}

// GET /api/reservations/calendar?from&to
func (h *reservationHandler) Calendar(c *gin.Context) {
	from, to, err := h.weekRange(c)
	if err != nil {
		respondError(c, err)
		return
	}

	intervals, err := h.svc.Calendar(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"from": from, "to": to, "intervals": intervals})
}

// GET /api/reservations/board.png?week=YYYY-MM-DD
func (h *reservationHandler) Board(c *gin.Context) {
	week := h.clock.Now()
	if raw := c.Query("week"); raw != "" {
		t, err := time.ParseInLocation(time.DateOnly, raw, h.loc)
		if err != nil {
			respondError(c, apperr.Validation("invalid_query", "week must be YYYY-MM-DD."))
			return
		}
		week = t
	}

	from := render.WeekStart(week, h.loc)
	items, err := h.svc.ActiveBetween(c.Request.Context(), from, from.AddDate(0, 0, 7))
	if err != nil {
		respondError(c, err)
		return
	}

	png, err := render.WeekBoard(render.Board{
		Week:         from,
		Now:          h.clock.Now(),
		Location:     h.loc,
		Reservations: items,
		OpeningHour:  service.OpeningHour,
		ClosingHour:  service.ClosingHour,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// weekRange from/to из запроса, по умолчанию текущая неделя
func (h *reservationHandler) weekRange(c *gin.Context) (time.Time, time.Time, error) {
	from, err := queryTime(c, "from", h.loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := queryTime(c, "to", h.loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if from == nil {
		start := render.WeekStart(h.clock.Now(), h.loc)
		from = &start
	}
	if to == nil {
		end := from.AddDate(0, 0, 7)
		to = &end
	}

	return *from, *to, nil
}

func (h *reservationHandler) transition(c *gin.Context, op func(ctx context.Context, actor auth.Identity, id int64) (*model.Reservation, error)) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := op(c.Request.Context(), identity(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
