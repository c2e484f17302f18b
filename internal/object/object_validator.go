package object

import (
	"errors"
	"fmt"
	"html"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// ErrInvalidElement is wrapped by every validation failure.
var ErrInvalidElement = errors.New("invalid element")

// Validator: validation and sanitization of whiteboard elements
type Validator struct {
	validate  *validator.Validate
	sanitizer *bluemonday.Policy
}

func NewValidator() *Validator {
	// removes all HTML/scripts
	policy := bluemonday.StrictPolicy()

	return &Validator{
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		sanitizer: policy,
	}
}

// ValidateAndSanitize checks e against its schema and returns a copy with
// free-text fields stripped of markup. Server-owned fields are passed through.
func (v *Validator) ValidateAndSanitize(e Element) (Element, error) {
	if !AllowedElementTypes[e.Type] {
		return Element{}, fmt.Errorf("%w: type %q not allowed (line, rectangle, circle, text, image)", ErrInvalidElement, e.Type)
	}

	if err := v.validate.Struct(schemaFor(e)); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return Element{}, formatValidationErrors(validationErrors)
		}
		return Element{}, fmt.Errorf("%w: %v", ErrInvalidElement, err)
	}

	if n := minPoints[e.Type]; len(e.Points) < n {
		return Element{}, fmt.Errorf("%w: %s needs at least %d points", ErrInvalidElement, e.Type, n)
	}

	switch e.Type {
	case TypeText:
		if e.Text == "" {
			return Element{}, fmt.Errorf("%w: 'text' is required", ErrInvalidElement)
		}
	case TypeImage:
		if e.ImageURL == "" {
			return Element{}, fmt.Errorf("%w: 'imageUrl' is required", ErrInvalidElement)
		}
	}

	out := e.Clone()
	out.Color = v.SanitizeString(out.Color)
	out.Fill = v.SanitizeString(out.Fill)
	out.Text = v.SanitizeString(out.Text)
	return out, nil
}

// SanitizeString removes any HTML tags from s. Text is drawn on a canvas,
// not rendered as HTML, so the entities bluemonday escapes are decoded back.
func (v *Validator) SanitizeString(s string) string {
	if s == "" {
		return s
	}
	return html.UnescapeString(v.sanitizer.Sanitize(s))
}

// formatValidationErrors converts validator errors to a user-friendly error message
// Simplified to provide clear, actionable feedback without excessive detail
func formatValidationErrors(errs validator.ValidationErrors) error {
	if len(errs) == 0 {
		return ErrInvalidElement
	}
	return fmt.Errorf("%w: %s", ErrInvalidElement, formatSingleError(errs[0])) // Return first error for simplicity
}

// formatSingleError formats a single validation error with common cases
func formatSingleError(err validator.FieldError) string {
	field := err.Field()
	tag := err.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("'%s' is required", field)
	case "min", "max":
		return fmt.Sprintf("'%s' value out of allowed range", field)
	case "url":
		return fmt.Sprintf("'%s' must be a valid URL", field)
	case "oneof":
		return fmt.Sprintf("'%s' is not an allowed value", field)
	default:
		return fmt.Sprintf("'%s' is invalid", field)
	}
}
