package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, KindValidation.HTTPStatus())
	assert.Equal(t, http.StatusConflict, KindConflict.HTTPStatus())
	assert.Equal(t, http.StatusConflict, KindLimitExceeded.HTTPStatus())
	assert.Equal(t, http.StatusUnprocessableEntity, KindDeadline.HTTPStatus())
	assert.Equal(t, http.StatusTooManyRequests, KindRateLimited.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, KindPersistence.HTTPStatus())
}

func TestFromWrappedError(t *testing.T) {
	base := Conflict("busy").WithDetails("conflicts", 2)
	wrapped := fmt.Errorf("create reservation: %w", base)

	got := From(wrapped)
	assert.Same(t, base, got)
	assert.True(t, IsKind(wrapped, KindConflict))
	assert.True(t, errors.Is(wrapped, &Error{Kind: KindConflict}))
	assert.False(t, errors.Is(wrapped, &Error{Kind: KindConflict, Code: "other"}))
}

func TestFromPlainErrorIsPersistence(t *testing.T) {
	driverErr := errors.New("connection reset")
	got := From(driverErr)

	assert.Equal(t, KindPersistence, got.Kind)
	assert.NotContains(t, got.Message, "connection reset")
	assert.ErrorIs(t, got, driverErr)
}
