// Package apperror defines the error vocabulary shared by every layer.
//
// TWO KINDS OF ERRORS:
//
//  1. Kind sentinels (ErrNotFound, ErrValidation, ...) classify a failure.
//     The HTTP layer only looks at the kind to pick a status code.
//
//  2. *AppError values carry the kind plus a client-facing message.
//     Domain failures (ErrDuplicateMember, ErrLoginFailed, ...) are
//     allocated once at package init and returned as-is, so callers can
//     compare them by identity:
//
//     if errors.Is(err, apperror.ErrLoginFailed) { ... }
//
//     and still match the kind through Unwrap:
//
//     errors.Is(apperror.ErrLoginFailed, apperror.ErrAuthentication) // true
//
// Messages are Korean because they are shown to end users verbatim.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation error")
	ErrConflict       = errors.New("conflict")
	ErrAuthentication = errors.New("authentication failed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrRateLimited    = errors.New("rate limited")
)

// FieldViolation is one failed constraint on one request field.
type FieldViolation struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type AppError struct {
	Err        error            // kind sentinel
	Code       string           // machine-readable code, e.g. "member.login.fail"
	Message    string           // human-readable message
	Field      string           // optional: field causing the error
	Violations []FieldViolation // only set for request validation failures
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func define(kind error, code, message string) *AppError {
	return &AppError{Err: kind, Code: code, Message: message}
}

// Domain failures. Each value is shared by every request that hits it and
// must never be mutated.
var (
	ErrDuplicateMember  = define(ErrConflict, "member.join.duplicate", "이미 사용 중인 아이디입니다.")
	ErrLoginFailed      = define(ErrAuthentication, "member.login.fail", "아이디 또는 비밀번호가 일치하지 않습니다.")
	ErrWithdrawFailed   = define(ErrAuthentication, "member.withdraw.fail", "회원 탈퇴에 실패했습니다. 비밀번호를 확인해 주세요.")
	ErrMemberNotFound   = define(ErrNotFound, "member.notfound", "회원 정보를 찾을 수 없습니다.")
	ErrSessionRequired  = define(ErrUnauthorized, "session.required", "로그인이 필요합니다.")
	ErrMalformedRequest = define(ErrValidation, "request.malformed", "요청 형식이 올바르지 않습니다.")
	ErrTooManyRequests  = define(ErrRateLimited, "request.ratelimited", "요청이 너무 많습니다. 잠시 후 다시 시도해 주세요.")

	ErrIngredientNotFound  = define(ErrNotFound, "ingredient.notfound", "재료를 찾을 수 없습니다.")
	ErrDuplicateIngredient = define(ErrConflict, "ingredient.duplicate", "이미 등록된 재료입니다.")
	ErrIngredientInUse     = define(ErrConflict, "ingredient.inuse", "레시피에서 사용 중인 재료는 삭제할 수 없습니다.")

	ErrRecipeNotFound          = define(ErrNotFound, "recipe.notfound", "레시피를 찾을 수 없습니다.")
	ErrDuplicateRecipe         = define(ErrConflict, "recipe.duplicate", "이미 등록된 레시피입니다.")
	ErrRecipeIngredientIsEmpty = define(ErrValidation, "recipe.ingredient.empty", "레시피에는 최소 한 개 이상의 재료가 필요합니다.")
)

// InternalMessage is what clients see for any error that is not an *AppError.
const InternalMessage = "서버 오류가 발생했습니다."

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Invalid bundles several field violations into one validation error.
// The first violation becomes the top-level message.
func Invalid(violations []FieldViolation) *AppError {
	e := &AppError{Err: ErrValidation, Code: "request.invalid", Violations: violations}
	if len(violations) > 0 {
		e.Message = violations[0].Message
		e.Field = violations[0].Field
	}
	return e
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}
