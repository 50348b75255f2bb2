package profile

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"msg"`
}

// ValidationError lists every field that failed a check.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// RawProfile is the unparsed upsert input. Empty strings mean "not supplied".
type RawProfile struct {
	Company        string                   `json:"company"`
	Website        string                   `json:"website"`
	Location       string                   `json:"location"`
	Bio            string                   `json:"bio"`
	Status         string                   `json:"status" validate:"required,notblank"`
	GithubUsername string                   `json:"githubusername"`
	Skills         string                   `json:"skills" validate:"required,notblank,skills"`
	Social         map[SocialNetwork]string `json:"social"`
}

type RawExperience struct {
	Title       string `json:"title" validate:"required,notblank"`
	Company     string `json:"company" validate:"required,notblank"`
	Location    string `json:"location"`
	From        string `json:"from" validate:"required,notblank,isodate"`
	To          string `json:"to" validate:"omitempty,isodate"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

type RawEducation struct {
	School       string `json:"school" validate:"required,notblank"`
	Degree       string `json:"degree" validate:"required,notblank"`
	FieldOfStudy string `json:"fieldofstudy" validate:"required,notblank"`
	From         string `json:"from" validate:"required,notblank,isodate"`
	To           string `json:"to" validate:"omitempty,isodate"`
	Current      bool   `json:"current"`
	Description  string `json:"description"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "notblank", validators.NotBlank)
	mustRegister(v, "skills", func(fl validator.FieldLevel) bool {
		return len(NormalizeSkills(fl.Field().String())) > 0
	})
	mustRegister(v, "isodate", func(fl validator.FieldLevel) bool {
		raw := fl.Field().String()
		if blank(raw) {
			return true
		}
		_, err := ParseDate(raw)
		return err == nil
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

var fieldLabels = map[string]string{
	"fieldofstudy": "field of study",
	"from":         "from date",
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "skills":
		return "skills must contain at least one skill"
	case "isodate":
		return fe.Field() + " must be a date (YYYY-MM-DD)"
	}
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}
	return label + " is required"
}

// check runs the struct tags of in and converts every failure into a FieldError.
func check(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.add(fe.Field(), message(fe))
	}
	return verr.orNil()
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func ValidateUpsert(in RawProfile) error {
	return check(in)
}

func ValidateExperience(in RawExperience) error {
	return check(in)
}

func ValidateEducation(in RawEducation) error {
	return check(in)
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}
