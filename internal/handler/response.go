package handler

// RESPONSE HELPERS:
// Every endpoint answers with the same envelope, success or failure:
//
//	{"message": null, "data": {...}}                    ← success
//	{"message": "이미 사용 중인 아이디입니다.", "data": null} ← failure
//
// Successful responses carry no message. Failed ones carry a Korean
// message the client can show as-is; request validation failures also put
// the per-field violations in data.
//
// ERROR MAPPING:
// The service layer returns apperror kinds and never picks a status code.
// writeError is the one place they become HTTP:
//
//	ErrValidation, ErrConflict, ErrNotFound, ErrAuthentication → 400
//	ErrUnauthorized                                            → 401
//	ErrRateLimited                                             → 429
//	anything else                                              → 500
//
// Not-found is 400 on purpose: a foreign resource is reported exactly like
// a missing one, and neither is a routing miss.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/hometender/internal/apperror"
	"github.com/sakif/hometender/internal/validation"
)

// Envelope is the body of every API response.
type Envelope struct {
	Message *string `json:"message"`
	Data    any     `json:"data"`
}

// writeJSON sends data inside a success envelope with status 200.
func writeJSON(w http.ResponseWriter, data any) {
	writeEnvelope(w, http.StatusOK, Envelope{Data: data})
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		// Headers are already sent; all we can do is log.
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation),
		errors.Is(err, apperror.ErrConflict),
		errors.Is(err, apperror.ErrNotFound),
		errors.Is(err, apperror.ErrAuthentication):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrRateLimited):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// writeError sends err inside a failure envelope. Errors without an
// *apperror.AppError in their chain are logged and hidden behind
// apperror.InternalMessage; their text may contain SQL or file paths.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		msg := apperror.InternalMessage
		writeEnvelope(w, http.StatusInternalServerError, Envelope{Message: &msg})
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed with unmapped error kind",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		msg := apperror.InternalMessage
		writeEnvelope(w, status, Envelope{Message: &msg})
		return
	}

	env := Envelope{Message: &appErr.Message}
	if len(appErr.Violations) > 0 {
		env.Data = appErr.Violations
	}
	writeEnvelope(w, status, env)
}

// maxBodyBytes caps request bodies; every payload here is a few hundred bytes.
const maxBodyBytes = 1 << 20

// decodeJSON reads the body into dst. Any syntax error, type mismatch or
// trailing data is reported as apperror.ErrMalformedRequest.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return apperror.ErrMalformedRequest
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperror.ErrMalformedRequest
	}
	return nil
}

// normalizer is implemented by request bodies that clean up their fields
// (trimming, mostly) before validation, so length rules see the value
// that is stored.
type normalizer interface {
	normalize()
}

// bind decodes the body into dst, normalizes it and validates it.
func bind(w http.ResponseWriter, r *http.Request, v *validation.Validator, dst any) error {
	if err := decodeJSON(w, r, dst); err != nil {
		return err
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	return v.Struct(dst)
}

func trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}

// pathID parses the {id} URL parameter. Anything that is not a positive
// integer is reported as notFound, the same as an id that does not exist.
func pathID(r *http.Request, notFound error) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, notFound
	}
	return id, nil
}
