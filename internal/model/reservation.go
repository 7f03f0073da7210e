package model

import "time"

type Category string

const (
	CategoryElevator Category = "elevator" // Лифт для переезда
	CategoryParking  Category = "parking"  // Парковочное место
	CategoryOther    Category = "other"
)

// Categories возвращает все категории в порядке отображения
func Categories() []Category {
	return []Category{CategoryElevator, CategoryParking, CategoryOther}
}

// Valid проверяет что категория известна
func (c Category) Valid() bool {
	switch c {
	case CategoryElevator, CategoryParking, CategoryOther:
		return true
	}
	return false
}

// Interval полуоткрытый промежуток [Start, End) в рамках одной категории
type Interval struct {
	Category Category  `json:"category"`
	Start    time.Time `json:"start_time"`
	End      time.Time `json:"end_time"`
}

// Overlaps сообщает пересекаются ли интервалы.
// Интервалы разных категорий никогда не пересекаются, стык (a.End == b.Start) не пересечение.
func (a Interval) Overlaps(b Interval) bool {
	if a.Category != b.Category {
		return false
	}
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Duration длительность интервала
func (a Interval) Duration() time.Duration {
	return a.End.Sub(a.Start)
}

type Reservation struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	Category     Category   `json:"category"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      time.Time  `json:"end_time"`
	Description  *string    `json:"description,omitempty"`
	Status       Status     `json:"status"`
	AdminComment *string    `json:"admin_comment,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Interval возвращает временной интервал бронирования
func (r *Reservation) Interval() Interval {
	return Interval{Category: r.Category, Start: r.StartTime, End: r.EndTime}
}

// IsActive активные бронирования участвуют в проверке конфликтов и лимита
func (r *Reservation) IsActive() bool {
	return r.Status.IsActive()
}

// DurationHours длительность в часах
func (r *Reservation) DurationHours() float64 {
	return r.EndTime.Sub(r.StartTime).Hours()
}

// OwnerKey ключ лимита "одно активное бронирование".
// Если Apartment пуст, лимит считается по UserID.
type OwnerKey struct {
	UserID    int64
	Apartment string
}

// String используется как ключ advisory lock
func (k OwnerKey) String() string {
	if k.Apartment != "" {
		return "apartment:" + k.Apartment
	}
	return "user:" + itoa(k.UserID)
}

// ReservationFilter фильтр списка бронирований
type ReservationFilter struct {
	Status   *Status
	Category *Category
	UserID   *int64
	From     *time.Time // start_time >= From
	To       *time.Time // start_time < To
	Page     int
	PerPage  int
}

// Normalize выставляет значения пагинации по умолчанию
func (f *ReservationFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage <= 0 {
		f.PerPage = 20
	}
	if f.PerPage > 100 {
		f.PerPage = 100
	}
}

// Offset смещение для LIMIT/OFFSET
func (f ReservationFilter) Offset() int {
	return (f.Page - 1) * f.PerPage
}
