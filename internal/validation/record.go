package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/student-console-api/internal/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RecordValidator checks candidate records against the field rules the
// console enforces before any mutation is submitted. Validation is pure
// and synchronous: every violation is collected, nothing is persisted.
type RecordValidator struct {
	validate *validator.Validate
	now      func() time.Time
}

// New builds a RecordValidator. The clock is injectable so age rules
// can be tested against a fixed "now"; nil means time.Now.
func New(now func() time.Time) *RecordValidator {
	if now == nil {
		now = time.Now
	}
	rv := &RecordValidator{now: now}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "present", present)
	mustRegister(v, "personname", personName)
	mustRegister(v, "phone10", phone10)
	mustRegister(v, "emailbasic", emailBasic)
	mustRegister(v, "bloodgroup", bloodGroup)
	mustRegister(v, "dob", rv.dateOfBirth)
	rv.validate = v

	return rv
}

// Validate maps a candidate record to field level error messages. An
// empty map means the candidate is valid. Re-running on the same
// candidate yields the same result.
func (rv *RecordValidator) Validate(candidate models.Record) map[string]string {
	fieldErrs := make(map[string]string)

	err := rv.validate.Struct(candidate)
	if err == nil {
		return fieldErrs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fieldErrs["record"] = "record could not be validated"
		return fieldErrs
	}

	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := fieldErrs[field]; seen {
			continue
		}
		fieldErrs[field] = rv.message(field, candidate)
	}
	return fieldErrs
}

func (rv *RecordValidator) message(field string, candidate models.Record) string {
	switch field {
	case "name":
		return "name must be at least 2 characters"
	case "email":
		return "enter a valid email address"
	case "contactNumber":
		return "contact number must be exactly 10 digits"
	case "guardianNumber":
		return "guardian number must be exactly 10 digits"
	case "admissionDate":
		return "admission date is required"
	case "rollNo":
		return "roll no is required"
	case "class":
		return "class is required"
	case "section":
		return "section is required"
	case "bloodGroup":
		return "blood group must be one of " + strings.Join(models.BloodGroups, ", ")
	case "dateOfBirth":
		return rv.dobMessage(candidate.DateOfBirth)
	}
	return "invalid value"
}

func (rv *RecordValidator) dobMessage(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "date of birth is required"
	}
	dob, err := time.Parse(models.DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return "date of birth must be a valid date"
	}
	now := rv.now()
	switch {
	case dob.After(now):
		return "date of birth cannot be in the future"
	case dob.Before(now.AddDate(-150, 0, 0)):
		return "date of birth is unreasonably far in the past"
	case dob.After(now.AddDate(-5, 0, 0)):
		return "student must be at least 5 years old"
	}
	return "date of birth is invalid"
}

func present(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func personName(fl validator.FieldLevel) bool {
	return len(strings.TrimSpace(fl.Field().String())) >= 2
}

func phone10(fl validator.FieldLevel) bool {
	return len(digitsOnly(fl.Field().String())) == 10
}

func emailBasic(fl validator.FieldLevel) bool {
	return emailPattern.MatchString(fl.Field().String())
}

// bloodGroup accepts an empty value: the attribute is optional.
func bloodGroup(fl validator.FieldLevel) bool {
	raw := strings.TrimSpace(fl.Field().String())
	if raw == "" {
		return true
	}
	for _, code := range models.BloodGroups {
		if strings.EqualFold(raw, code) {
			return true
		}
	}
	return false
}

// dateOfBirth enforces: parseable calendar date, not in the future,
// within 150 years, and an age of at least 5 years.
func (rv *RecordValidator) dateOfBirth(fl validator.FieldLevel) bool {
	raw := strings.TrimSpace(fl.Field().String())
	if raw == "" {
		return false
	}
	dob, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return false
	}
	now := rv.now()
	if dob.After(now) {
		return false
	}
	if dob.Before(now.AddDate(-150, 0, 0)) {
		return false
	}
	if dob.After(now.AddDate(-5, 0, 0)) {
		return false
	}
	return true
}

func digitsOnly(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}
