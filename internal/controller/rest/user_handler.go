package rest

import (
	"net/http"

	"github.com/Freeeeeet/apartment_booking/internal/service"
	"github.com/gin-gonic/gin"
)

type userHandler struct {
	svc *service.UserService
}

type registerRequest struct {
	Username        string  `json:"username" binding:"required,min=3,max=50,alphanum"`
	Email           string  `json:"email" binding:"required,email,max=100"`
	Password        string  `json:"password" binding:"required,min=8,max=72"`
	Name            string  `json:"name" binding:"required,max=50"`
	Phone           *string `json:"phone" binding:"omitempty,max=20"`
	ApartmentNumber *string `json:"apartment_number" binding:"omitempty,max=20"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// POST /api/users/register
func (h *userHandler) Register(c *gin.Context) {
	var in registerRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, bindError(err))
		return
	}

	user, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
		Username:        in.Username,
		Email:           in.Email,
		Password:        in.Password,
		Name:            in.Name,
		Phone:           in.Phone,
		ApartmentNumber: in.ApartmentNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// POST /api/users/login
func (h *userHandler) Login(c *gin.Context) {
	var in loginRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, bindError(err))
		return
	}

	result, err := h.svc.Login(c.Request.Context(), in.Username, in.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GET /api/users/me
func (h *userHandler) Me(c *gin.Context) {
	user, err := h.svc.GetByID(c.Request.Context(), identity(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// GET /api/users
func (h *userHandler) List(c *gin.Context) {
	page, perPage, err := pageParams(c)
	if err != nil {
		respondError(c, err)
		return
	}

	users, total, err := h.svc.List(c.Request.Context(), identity(c), page, perPage)
	if err != nil {
		respondError(c, err)
		return
	}

	if page < 1 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}
	c.JSON(http.StatusOK, newList(users, total, page, perPage))
}

// PATCH /api/users/:id/active
func (h *userHandler) SetActive(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var in setActiveRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, bindError(err))
		return
	}

	user, err := h.svc.SetActive(c.Request.Context(), identity(c), id, *in.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
