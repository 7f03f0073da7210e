package model

import "time"

type User struct {
	ID              int64      `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	Name            string     `json:"name"`
	Phone           *string    `json:"phone,omitempty"`
	ApartmentNumber *string    `json:"apartment_number,omitempty"` // Номер квартиры, например "101동 1203호"
	IsAdmin         bool       `json:"is_admin"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	LastLogin       *time.Time `json:"last_login,omitempty"`
}

// DisplayName имя с номером квартиры
func (u *User) DisplayName() string {
	if u.ApartmentNumber != nil && *u.ApartmentNumber != "" {
		return u.Name + " (" + *u.ApartmentNumber + ")"
	}
	return u.Name
}

// Apartment номер квартиры или пустая строка
func (u *User) Apartment() string {
	if u.ApartmentNumber == nil {
		return ""
	}
	return *u.ApartmentNumber
}
