package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Freeeeeet/apartment_booking/internal/apperr"
)

// Номер квартиры: "<дом>동 <квартира>호", пробел между частями необязателен
var apartmentPattern = regexp.MustCompile(`^([0-9]{1,4})동\s*([0-9]{1,4})호$`)

const (
	maxDong = 999
	maxHo   = 9999
)

// NormalizeApartmentNumber проверяет номер квартиры и приводит его к виду "101동 1203호"
func NormalizeApartmentNumber(raw string) (string, error) {
	m := apartmentPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", apperr.Validation("invalid_apartment",
			"Apartment number must look like 101동 1203호.").
			WithDetails("field", "apartment_number").
			WithDetails("format", "XXX동 XXXX호")
	}

	dong, _ := strconv.Atoi(m[1])
	ho, _ := strconv.Atoi(m[2])

	if dong < 1 || dong > maxDong {
		return "", apperr.Validation("invalid_apartment",
			fmt.Sprintf("Building number must be between 1 and %d.", maxDong))
	}
	if ho < 1 || ho > maxHo {
		return "", apperr.Validation("invalid_apartment",
			fmt.Sprintf("Unit number must be between 1 and %d.", maxHo))
	}

	return fmt.Sprintf("%d동 %d호", dong, ho), nil
}
