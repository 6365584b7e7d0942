package project

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/padhq/launchpad/core"
)

var (
	fieldStatusTag  = "fieldstatus"
	fieldStatusText = "status must be one of: confirmed, not_confirmed, might_change"

	correctOptionTag  = "correctoption"
	correctOptionText = "correct option is out of range"
)

// InitValidators registers project-specific validators and translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(fieldStatusTag, fieldStatusValidation)
	core.RegisterCustomTranslation(validate, translator, fieldStatusTag, fieldStatusText)

	validate.RegisterStructValidation(quizQuestionStructValidation, QuizQuestionInput{})
	core.RegisterCustomTranslation(validate, translator, correctOptionTag, correctOptionText)
}

// Custom Validators

// fieldStatusValidation checks that the value is a member of the Status enum.
func fieldStatusValidation(fl validator.FieldLevel) bool {
	return Status(fl.Field().String()).Valid()
}

// quizQuestionStructValidation checks that CorrectOption indexes into Options.
func quizQuestionStructValidation(sl validator.StructLevel) {
	q, ok := sl.Current().Interface().(QuizQuestionInput)
	if !ok {
		return
	}
	if q.CorrectOption >= len(q.Options) {
		sl.ReportError(q.CorrectOption, "correct_option", "CorrectOption", correctOptionTag, "")
	}
}
