// Package render рисует недельную доску занятости в PNG.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"time"

	"github.com/Freeeeeet/apartment_booking/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Размеры и отступы
const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 140
	dayPaddingX      = 6
	minSlotHeight    = 8.0
	slotBorderRadius = 6.0
	shadowOffset     = 3.0
	totalDaysInWeek  = 7
	firstHour        = 8
	lastHour         = 19
)

var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 220}
	hourLabelColor   = color.RGBA{110, 115, 120, 200}
	hourLineColor    = color.NRGBA{150, 150, 150, 255}
	todayBgColor     = color.NRGBA{255, 99, 71, 125}
	evenDayColor     = color.NRGBA{240, 240, 240, 255}
	oddDayColor      = color.NRGBA{220, 220, 220, 255}
	weekendColor     = color.NRGBA{200, 200, 200, 255}
	closedHoursColor = color.NRGBA{0, 0, 0, 18}
	currentTimeColor = color.NRGBA{255, 80, 80, 200}

	elevatorColor   = color.RGBA{120, 170, 230, 230}
	parkingColor    = color.RGBA{133, 193, 85, 220}
	otherColor      = color.RGBA{240, 190, 90, 220}
	slotTextColor   = color.RGBA{20, 24, 28, 230}
	slotShadowColor = color.RGBA{0, 0, 0, 20}
	legendItemColor = color.RGBA{70, 74, 78, 220}
)

// Board параметры доски
type Board struct {
	Week         time.Time // любой день недели
	Now          time.Time
	Location     *time.Location
	Reservations []*model.Reservation
	OpeningHour  int
	ClosingHour  int
}

// WeekStart понедельник недели t в loc
func WeekStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	daysSinceMonday := int(day.Weekday()) - 1
	if day.Weekday() == time.Sunday {
		daysSinceMonday = 6
	}
	return day.AddDate(0, 0, -daysSinceMonday)
}

// WeekBoard рисует активные бронирования недели, колонки дней разбиты по категориям
func WeekBoard(b Board) ([]byte, error) {
	if b.Location == nil {
		b.Location = time.UTC
	}

	start := WeekStart(b.Week, b.Location)
	today := normalizeToDay(b.Now.In(b.Location))

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / totalDaysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(lastHour-firstHour)

	drawHeader(dc, start)
	drawHourLabels(dc, cellHeight)

	byDay := groupByDay(b.Reservations, b.Location)

	for dayIndex := 0; dayIndex < totalDaysInWeek; dayIndex++ {
		date := start.AddDate(0, 0, dayIndex)
		x := float64(leftLabelsWidth + dayIndex*dayWidth)
		y := float64(headerHeight)

		drawDayBackground(dc, date, x, y, dayWidth, dayHeight, dayIndex, date.Equal(today))
		drawClosedHours(dc, x, y, dayWidth, cellHeight, b.OpeningHour, b.ClosingHour)
		drawHourLines(dc, x, y, dayWidth, cellHeight)
		drawDayHeader(dc, date, x, y, dayWidth)

		for _, r := range byDay[date.Format("2006-01-02")] {
			drawReservation(dc, r, b.Location, x, y, dayWidth, cellHeight)
		}
	}

	if !today.Before(start) && today.Before(start.AddDate(0, 0, totalDaysInWeek)) {
		drawCurrentTimeLine(dc, b.Now.In(b.Location), cellHeight, dayWidth)
	}
	drawLegend(dc, dayWidth)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode board: %w", err)
	}
	return buf.Bytes(), nil
}

func normalizeToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func groupByDay(items []*model.Reservation, loc *time.Location) map[string][]*model.Reservation {
	byDay := make(map[string][]*model.Reservation)
	for _, r := range items {
		if !r.IsActive() {
			continue
		}
		key := r.StartTime.In(loc).Format("2006-01-02")
		byDay[key] = append(byDay[key], r)
	}
	return byDay
}

func drawHeader(dc *gg.Context, start time.Time) {
	end := start.AddDate(0, 0, totalDaysInWeek-1)
	title := fmt.Sprintf("Reservations %s - %s", start.Format("Jan 2"), end.Format("Jan 2, 2006"))

	dc.SetColor(textColor)
	dc.DrawStringAnchored(title, float64(imageWidth)/2, float64(headerHeight)/4, 0.5, 0.5)
}

func drawHourLabels(dc *gg.Context, cellHeight float64) {
	dc.SetColor(hourLabelColor)
	for h := firstHour; h <= lastHour; h++ {
		y := float64(headerHeight) + float64(h-firstHour)*cellHeight
		dc.DrawStringAnchored(fmt.Sprintf("%02d:00", h), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDayBackground(dc *gg.Context, date time.Time, x, y float64, dayWidth, dayHeight, dayIndex int, isToday bool) {
	switch {
	case isToday:
		dc.SetColor(todayBgColor)
	case date.Weekday() == time.Saturday || date.Weekday() == time.Sunday:
		dc.SetColor(weekendColor)
	case dayIndex%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

// drawClosedHours затеняет часы вне рабочего времени
func drawClosedHours(dc *gg.Context, x, y float64, dayWidth int, cellHeight float64, opening, closing int) {
	if opening <= 0 && closing <= 0 {
		return
	}
	dc.SetColor(closedHoursColor)
	if opening > firstHour {
		dc.DrawRectangle(x, y, float64(dayWidth), float64(opening-firstHour)*cellHeight)
		dc.Fill()
	}
	if closing < lastHour {
		top := y + float64(closing-firstHour)*cellHeight
		dc.DrawRectangle(x, top, float64(dayWidth), float64(lastHour-closing)*cellHeight)
		dc.Fill()
	}
}

func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)
	for h := 0; h <= lastHour-firstHour; h++ {
		hy := y + float64(h)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

func drawDayHeader(dc *gg.Context, date time.Time, x, y float64, dayWidth int) {
	dc.SetColor(textColor)
	dc.DrawStringAnchored(date.Format("02.01"), x+float64(dayWidth)/2, y-30, 0.5, 0.5)
	dc.DrawStringAnchored(date.Format("Mon"), x+float64(dayWidth)/2, y-12, 0.5, 0.5)
}

// drawReservation колонка дня делится на три полосы, по одной на категорию
func drawReservation(dc *gg.Context, r *model.Reservation, loc *time.Location, x, y float64, dayWidth int, cellHeight float64) {
	start := r.StartTime.In(loc)
	end := r.EndTime.In(loc)

	startHour := float64(start.Hour()) + float64(start.Minute())/60.0
	endHour := float64(end.Hour()) + float64(end.Minute())/60.0
	if startHour < firstHour {
		startHour = firstHour
	}
	if endHour > lastHour {
		endHour = lastHour
	}

	slotY := y + (startHour-firstHour)*cellHeight
	slotHeight := (endHour - startHour) * cellHeight
	if slotHeight < minSlotHeight {
		slotHeight = minSlotHeight
	}

	lanes := len(model.Categories())
	laneWidth := (float64(dayWidth) - float64(dayPaddingX*2)) / float64(lanes)
	slotX := x + float64(dayPaddingX) + float64(laneIndex(r.Category))*laneWidth
	slotWidth := laneWidth - 2

	base := categoryColor(r.Category)
	var fill color.Color = base
	if r.Status == model.StatusPending {
		fill = color.NRGBA{R: base.R, G: base.G, B: base.B, A: 140}
	}

	dc.SetColor(slotShadowColor)
	dc.DrawRoundedRectangle(slotX+shadowOffset, slotY+2+shadowOffset, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(slotX, slotY+2, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(darkenColor(base, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(slotX, slotY+2, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Stroke()

	if slotHeight > 20 {
		dc.SetColor(slotTextColor)
		dc.DrawStringAnchored(start.Format("15:04"), slotX+4, slotY+14, 0, 0)
	}
	if slotHeight > 36 && r.Status == model.StatusPending {
		dc.DrawStringAnchored("?", slotX+4, slotY+30, 0, 0)
	}
}

func laneIndex(c model.Category) int {
	for i, cat := range model.Categories() {
		if cat == c {
			return i
		}
	}
	return 0
}

func categoryColor(c model.Category) color.RGBA {
	switch c {
	case model.CategoryElevator:
		return elevatorColor
	case model.CategoryParking:
		return parkingColor
	default:
		return otherColor
	}
}

func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

func drawCurrentTimeLine(dc *gg.Context, now time.Time, cellHeight float64, dayWidth int) {
	hour := float64(now.Hour()) + float64(now.Minute())/60.0
	if hour < firstHour || hour > lastHour {
		return
	}

	lineY := float64(headerHeight) + (hour-firstHour)*cellHeight
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2.0)
	dc.DrawLine(float64(leftLabelsWidth), lineY, float64(leftLabelsWidth+totalDaysInWeek*dayWidth), lineY)
	dc.Stroke()
}

func drawLegend(dc *gg.Context, dayWidth int) {
	liX := float64(leftLabelsWidth + totalDaysInWeek*dayWidth + 12)
	liY := float64(imageHeight) - 140.0

	boxW := 20.0
	boxH := 14.0

	items := []struct {
		label string
		clr   color.Color
	}{
		{"Elevator", elevatorColor},
		{"Parking", parkingColor},
		{"Other", otherColor},
		{"Pending", color.NRGBA{150, 150, 150, 140}},
	}

	for _, item := range items {
		dc.SetColor(item.clr)
		dc.DrawRoundedRectangle(liX, liY, boxW, boxH, 3)
		dc.Fill()

		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.label, liX+boxW+8, liY+boxH/2, 0, 0.5)
		liY += boxH + 14
	}
}
