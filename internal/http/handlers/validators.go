package handlers

import (
	"reflect"
	"strings"

	"github.com/geocoder89/roleboard/internal/domain/task"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	RegisterValidators()
}

// RegisterValidators adds the custom binding tags used by request structs.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// report fields by their json names
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return sf.Name
		}
		return name
	})

	_ = v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(task.Status)
		if !ok {
			return false
		}
		return s.IsValid()
	})
}
