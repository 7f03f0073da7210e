package model

// DashboardStats сводка для панели администратора
type DashboardStats struct {
	TotalUsers        int64              `json:"total_users"`
	ActiveUsers       int64              `json:"active_users"`
	TotalReservations int64              `json:"total_reservations"`
	ByStatus          map[Status]int64   `json:"reservations_by_status"`
	ByCategory        map[Category]int64 `json:"reservations_by_category"`
	TodayReservations int64              `json:"today_reservations"`
	PublishedNotices  int64              `json:"published_notices"`
}
