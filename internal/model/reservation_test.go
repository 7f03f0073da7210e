package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 3, hour, minute, 0, 0, time.UTC)
}

func iv(c Category, sh, sm, eh, em int) Interval {
	return Interval{Category: c, Start: at(sh, sm), End: at(eh, em)}
}

func TestIntervalOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"touching boundary", iv(CategoryElevator, 9, 0, 10, 0), iv(CategoryElevator, 10, 0, 11, 0), false},
		{"containment", iv(CategoryElevator, 9, 0, 12, 0), iv(CategoryElevator, 10, 0, 11, 0), true},
		{"partial overlap", iv(CategoryElevator, 10, 0, 11, 0), iv(CategoryElevator, 10, 30, 11, 30), true},
		{"identical", iv(CategoryParking, 10, 0, 11, 0), iv(CategoryParking, 10, 0, 11, 0), true},
		{"disjoint", iv(CategoryParking, 9, 0, 10, 0), iv(CategoryParking, 13, 0, 14, 0), false},
		{"other category", iv(CategoryElevator, 10, 0, 11, 0), iv(CategoryParking, 10, 0, 11, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			// симметричность
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestIntervalOverlapsMatchesThreeWayForm(t *testing.T) {
	threeWay := func(a, b Interval) bool {
		return (!b.Start.Before(a.Start) && b.Start.Before(a.End)) ||
			(a.Start.Before(b.End) && !b.End.After(a.End)) ||
			(!b.Start.After(a.Start) && !b.End.Before(a.End))
	}

	for sh := 9; sh < 17; sh++ {
		for eh := sh + 1; eh <= 18; eh++ {
			a := iv(CategoryOther, 11, 0, 14, 0)
			b := iv(CategoryOther, sh, 0, eh, 0)
			assert.Equal(t, threeWay(a, b), a.Overlaps(b), "b=[%d,%d)", sh, eh)
		}
	}
}

func TestOwnerKeyString(t *testing.T) {
	assert.Equal(t, "user:42", OwnerKey{UserID: 42}.String())
	assert.Equal(t, "apartment:101-1203", OwnerKey{UserID: 42, Apartment: "101-1203"}.String())
}

func TestReservationFilterNormalize(t *testing.T) {
	f := ReservationFilter{Page: 0, PerPage: 500}
	f.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 100, f.PerPage)
	assert.Equal(t, 0, f.Offset())

	f = ReservationFilter{Page: 3, PerPage: 10}
	f.Normalize()
	assert.Equal(t, 20, f.Offset())
}
