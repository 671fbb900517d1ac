package attendance

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/seenelm/tanwir-students-sub000/core"
)

var (
	statusTag  = "status"
	statusText = "invalid attendance status"
)

// InitValidators registers attendance-specific validators and translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)
}

// statusValidation checks that the field is one of AllStatuses.
func statusValidation(fl validator.FieldLevel) bool {
	status := Status(fl.Field().String())
	for _, s := range AllStatuses {
		if status == s {
			return true
		}
	}
	return false
}
