package rest

import (
	"reflect"
	"strings"
	"sync"

	"github.com/Freeeeeet/apartment_booking/internal/model"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// registerValidators добавляет теги category и notice_category в валидатор gin
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		// В ошибках используются имена полей из json
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
			return model.Category(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("notice_category", func(fl validator.FieldLevel) bool {
			return model.NoticeCategory(fl.Field().String()).Valid()
		})
	})
}
