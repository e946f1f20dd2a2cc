package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/PathwayEdu/session-service/internal/models"
)

// ValidationError represents one failed field rule.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Validator wraps go-playground/validator with the engine's custom rules.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	validate := validator.New()
	registerCustomRules(validate)
	return &Validator{validate: validate}
}

// Validate validates a struct; a nil return means all rules passed.
func (v *Validator) Validate(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	return ToValidationErrors(err)
}

// ValidateQuotaTable checks the static quota configuration: struct rules per
// cell plus uniqueness of derived section ids.
func (v *Validator) ValidateQuotaTable(table models.QuotaTable) error {
	var errs ValidationErrors
	seen := make(map[string]bool, len(table))

	for i, cell := range table {
		if err := v.validate.Struct(cell); err != nil {
			errs = append(errs, ToValidationErrors(err)...)
		}
		id := cell.SectionID()
		if seen[id] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("quota[%d]", i),
				Message: fmt.Sprintf("duplicate section id %q", id),
				Rule:    "unique_section",
			})
		}
		seen[id] = true
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ToValidationErrors converts go-playground errors into the engine's shape.
func ToValidationErrors(err error) ValidationErrors {
	var out ValidationErrors
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "_", Message: err.Error()}}
	}
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: messageFor(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func registerCustomRules(validate *validator.Validate) {
	// question_type restricts to the two types the engine serves
	_ = validate.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		switch models.QuestionType(fl.Field().String()) {
		case models.MultipleChoice, models.Likert:
			return true
		}
		return false
	})

	// answer_value: the engine counts any non-empty value as answered
	_ = validate.RegisterValidation("answer_value", func(fl validator.FieldLevel) bool {
		return fl.Field().String() != ""
	})
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "question_type":
		return "must be multiple_choice or likert"
	case "answer_value":
		return "must not be empty"
	default:
		return fmt.Sprintf("failed rule %q", fe.Tag())
	}
}
