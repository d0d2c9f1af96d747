package validator

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/oerms/oerms-backend/internal/model"
)

// candidateNumberPattern matches e.g. GCE2026A1B2C3 and GCE2026A1B2C3-2.
var candidateNumberPattern = regexp.MustCompile(`^[A-Z0-9]{5,20}(-[0-9]{1,3})?$`)

// trans is the singleton English translator for validation errors.
var trans ut.Translator

// Setup registers the validator with English translations and the custom
// tags on Gin's binding engine. Call once during application startup.
func Setup() {
	v, ok := binding.Validator.Engine().(*govalidator.Validate)
	if !ok {
		return
	}

	// Use JSON (or form) tag name for field names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("json")
		if tag == "" {
			tag = fld.Tag.Get("form")
		}
		name := strings.SplitN(tag, ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	registerCustom(v, "candidate_number", validCandidateNumber, "{0} must be a valid candidate number")
	registerCustom(v, "staff_role", validStaffRole, "{0} must be one of ministry_admin, institutional_admin, examination_officer")
}

func registerCustom(v *govalidator.Validate, tag string, fn govalidator.Func, message string) {
	_ = v.RegisterValidation(tag, fn)
	_ = v.RegisterTranslation(tag, trans,
		func(u ut.Translator) error { return u.Add(tag, message, true) },
		func(u ut.Translator, fe govalidator.FieldError) string {
			t, _ := u.T(tag, fe.Field())
			return t
		},
	)
}

func validCandidateNumber(fl govalidator.FieldLevel) bool {
	return ValidCandidateNumber(fl.Field().String())
}

// ValidCandidateNumber reports whether s has the candidate number shape.
func ValidCandidateNumber(s string) bool {
	return candidateNumberPattern.MatchString(s)
}

func validStaffRole(fl govalidator.FieldLevel) bool {
	return model.Role(fl.Field().String()).IsStaff()
}

// TranslateErrors takes a binding/validation error and returns a map of
// field name → human-readable error message. If the error is not a
// validation error, it returns a single-key map with "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			if trans != nil {
				fields[fe.Field()] = fe.Translate(trans)
			} else {
				fields[fe.Field()] = fe.Error()
			}
		}
		return fields
	}

	// Not a validation error (e.g., JSON syntax error).
	fields["detail"] = err.Error()
	return fields
}

// Bind binds and validates the request body into dst.
// Returns nil on success or a translated field error map on failure.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

// BindQuery binds and validates query parameters into dst.
func BindQuery(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindQuery(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}
