package rest

import (
	"errors"

	"github.com/Freeeeeet/apartment_booking/internal/apperr"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// respondError отдаёт {"error": {...}} со статусом по виду ошибки
func respondError(c *gin.Context, err error) {
	e := apperr.From(err)
	_ = c.Error(err)

	c.AbortWithStatusJSON(e.Kind.HTTPStatus(), gin.H{"error": errorBody{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}})
}

// bindError ошибка разбора тела или параметров запроса
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		return apperr.Validation("invalid_request", "Request validation failed.").WithDetails("fields", fields)
	}

	return apperr.Validation("invalid_request", "Malformed request: "+err.Error())
}
