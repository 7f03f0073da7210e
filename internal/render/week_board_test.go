package render

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/Freeeeeet/apartment_booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekStart(t *testing.T) {
	tests := []struct {
		day  time.Time
		want time.Time
	}{
		{time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC), time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 3, 6, 9, 0, 0, 0, time.UTC), time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC), time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		assert.True(t, tt.want.Equal(WeekStart(tt.day, time.UTC)), "%v", tt.day)
	}
}

func TestWeekBoardRendersPNG(t *testing.T) {
	monday := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	reservations := []*model.Reservation{
		{ID: 1, Category: model.CategoryElevator, StartTime: monday.Add(10 * time.Hour), EndTime: monday.Add(11 * time.Hour), Status: model.StatusApproved},
		{ID: 2, Category: model.CategoryParking, StartTime: monday.Add(34 * time.Hour), EndTime: monday.Add(38 * time.Hour), Status: model.StatusPending},
		{ID: 3, Category: model.CategoryOther, StartTime: monday.Add(10 * time.Hour), EndTime: monday.Add(11 * time.Hour), Status: model.StatusCancelled},
	}

	data, err := WeekBoard(Board{
		Week:         monday.AddDate(0, 0, 2),
		Now:          monday.Add(12 * time.Hour),
		Location:     time.UTC,
		Reservations: reservations,
		OpeningHour:  9,
		ClosingHour:  18,
	})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, imageWidth, img.Bounds().Dx())
	assert.Equal(t, imageHeight, img.Bounds().Dy())
}
