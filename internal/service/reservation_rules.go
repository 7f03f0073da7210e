package service

import (
	"time"

	"github.com/Freeeeeet/apartment_booking/internal/apperr"
	"github.com/Freeeeeet/apartment_booking/internal/model"
)

// Бизнес-правила бронирования
const (
	OpeningHour        = 9
	ClosingHour        = 18
	MaxAdvance         = 180 * 24 * time.Hour
	MinDuration        = time.Hour
	MaxDuration        = 8 * time.Hour
	ModificationCutoff = time.Hour
	granularityMinutes = 30
)

// Коды нарушенных правил
const (
	RuleInvalidCategory = "invalid_category"
	RulePastStart       = "past_start"
	RuleTooFarAhead     = "too_far_ahead"
	RuleOutsideHours    = "outside_business_hours"
	RuleEndAfterClosing = "end_after_closing"
	RuleWeekend         = "weekend"
	RuleGranularity     = "granularity"
	RuleEndBeforeStart  = "end_before_start"
	RuleTooShort        = "too_short"
	RuleTooLong         = "too_long"
)

// ValidateInterval проверяет интервал без обращения к базе.
// Правила проверяются по порядку, возвращается первое нарушение.
// Часы и день недели считаются в часовом поясе loc.
func ValidateInterval(iv model.Interval, now time.Time, loc *time.Location) error {
	if !iv.Category.Valid() {
		return apperr.Validation(RuleInvalidCategory, "Unknown reservation category.").
			WithDetails("category", iv.Category)
	}

	start := iv.Start.In(loc)
	end := iv.End.In(loc)

	if start.Before(now) {
		return apperr.Validation(RulePastStart, "Reservations cannot start in the past.")
	}

	if start.After(now.Add(MaxAdvance)) {
		return apperr.Validation(RuleTooFarAhead, "Reservations can be made at most 6 months in advance.")
	}

	if start.Hour() < OpeningHour || start.Hour() >= ClosingHour {
		return apperr.Validation(RuleOutsideHours, "Reservations must start between 09:00 and 18:00.")
	}

	if end.Hour() > ClosingHour || (end.Hour() == ClosingHour && end.Minute() > 0) {
		return apperr.Validation(RuleEndAfterClosing, "Reservations must end by 18:00.")
	}

	if wd := start.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return apperr.Validation(RuleWeekend, "Reservations are available on weekdays only (Mon-Fri).")
	}

	if !onGrid(start) || !onGrid(end) {
		return apperr.Validation(RuleGranularity, "Reservations must start and end on the hour or half hour (e.g. 9:00, 9:30).")
	}

	if !end.After(start) {
		return apperr.Validation(RuleEndBeforeStart, "End time must be after start time.")
	}

	duration := end.Sub(start)

	if duration < MinDuration {
		return apperr.Validation(RuleTooShort, "Reservations must last at least 1 hour.")
	}

	if duration > MaxDuration {
		return apperr.Validation(RuleTooLong, "Reservations can last at most 8 hours.")
	}

	return nil
}

func onGrid(t time.Time) bool {
	return t.Minute()%granularityMinutes == 0 && t.Second() == 0 && t.Nanosecond() == 0
}
