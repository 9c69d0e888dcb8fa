// Package validation checks decoded request bodies against their
// `validate:"..."` struct tags and turns failures into field violations
// with Korean messages.
//
// Each violation carries a code that names the broken constraint in the
// vocabulary clients already know (NotBlank, Email, Size, Positive, ...),
// independent of the validator tag that produced it.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/hometender/internal/apperror"
)

// loginIDPattern accepts either a plain id ("loginId", "u1") or an e-mail
// address. Anything containing characters outside that set, such as
// "gildong#gmail.com", is rejected.
var loginIDPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+(@[A-Za-z0-9.-]+\.[A-Za-z]{2,})?$`)

// tag → client-facing code
var codes = map[string]string{
	"notblank":  "NotBlank",
	"loginid":   "Email",
	"min":       "Size",
	"max":       "Size",
	"gt":        "Positive",
	"unique":    "Unique",
	"required":  "NotNull",
	"bcryptlen": "Size",
}

// Tags whose message does not depend on the field. Checked before
// messages, so "bcryptlen" does not borrow the rune-count wording of
// password.Size.
var tagMessages = map[string]string{
	"bcryptlen": "비밀번호는 72바이트 이하여야 합니다.",
}

// field.code → message. Missing entries fall back to fallback().
var messages = map[string]string{
	"loginId.Email":          "잘못된 이메일 형식입니다.",
	"loginId.Size":           "아이디는 50자 이하여야 합니다.",
	"password.Size":          "비밀번호는 5자 이상, 20자 미만이여야 합니다.",
	"nickname.Size":          "닉네임은 2자 이상, 10자 미만이여야 합니다.",
	"ingredientLines.Unique": "같은 재료를 한 레시피에 두 번 넣을 수 없습니다.",
	"quantity.Positive":      "수량은 0보다 커야 합니다.",
}

// Validator is safe for concurrent use; the underlying validator caches
// struct metadata after the first call per type.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()

	// Report fields by their JSON names so violations match the request
	// body the client sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("loginid", func(fl validator.FieldLevel) bool {
		return loginIDPattern.MatchString(fl.Field().String())
	})

	// bcrypt only reads the first 72 bytes; multi-byte characters can
	// reach that well inside a rune-counted max.
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxPasswordBytes
	})

	return &Validator{v: v}
}

// MaxPasswordBytes is bcrypt's input limit.
const MaxPasswordBytes = 72

// Struct validates s and returns nil or an *apperror.AppError built with
// apperror.Invalid. Violations keep the struct's field order.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// InvalidValidationError: s was nil or not a struct.
		return fmt.Errorf("validation: %w", err)
	}

	violations := make([]apperror.FieldViolation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, toViolation(fe))
	}
	return apperror.Invalid(violations)
}

func toViolation(fe validator.FieldError) apperror.FieldViolation {
	code, ok := codes[fe.Tag()]
	if !ok {
		code = fe.Tag()
	}

	msg, ok := tagMessages[fe.Tag()]
	if !ok {
		msg, ok = messages[fe.Field()+"."+code]
	}
	if !ok {
		msg = fallback(code, fe)
	}

	return apperror.FieldViolation{
		Field:   fieldPath(fe.Namespace()),
		Code:    code,
		Message: msg,
	}
}

// fieldPath drops the top-level struct name from a namespace, so
// "postRecipeRequest.ingredientLines[0].quantity" becomes
// "ingredientLines[0].quantity".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func fallback(code string, fe validator.FieldError) string {
	switch code {
	case "NotBlank":
		return "공백은 허용되지 않습니다."
	case "Email":
		return "잘못된 이메일 형식입니다."
	case "Size":
		if fe.Tag() == "min" {
			return fmt.Sprintf("%s자 이상이어야 합니다.", fe.Param())
		}
		return fmt.Sprintf("%s자 이하여야 합니다.", fe.Param())
	case "Positive":
		return "0보다 큰 값이어야 합니다."
	case "Unique":
		return "중복된 값이 있습니다."
	case "NotNull":
		return "필수 값입니다."
	default:
		return "올바르지 않은 값입니다."
	}
}
