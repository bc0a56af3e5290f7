// Package validation builds the shared validator with the site's custom tags.
package validation

import (
	"sitecontent/internal/domain/models"

	"github.com/go-playground/validator/v10"
)

// New returns a validator with two extra tags:
//
//	slug     lower-case letters, digits and dashes
//	isodate  ISO-8601 date or timestamp
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Ошибки регистрации возможны только при пустом теге или nil-функции
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return models.IsSlug(fl.Field().String())
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := models.NormalizeDate(fl.Field().String())
		return err == nil
	})

	return v
}
