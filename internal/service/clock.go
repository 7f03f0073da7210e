package service

import "time"

// Clock источник текущего времени; в тестах подменяется
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
