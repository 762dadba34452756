package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/auditstore"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/diagnostic"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/report"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/session"
)

const (
	CodeValidation  = "validation"
	CodeNotFound    = "not_found"
	CodeConflict    = "conflict"
	CodeUnavailable = "unavailable"
	CodeInternal    = "internal"
)

type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func statusForCode(code string) int {
	switch code {
	case CodeValidation:
		return 400
	case CodeNotFound:
		return 404
	case CodeConflict:
		return 409
	case CodeUnavailable:
		return 503
	default:
		return 500
	}
}

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message, Status: statusForCode(code)}
}

func validationError(message string) *Error {
	return newError(CodeValidation, message)
}

func jsonError(err error) *Error {
	return newError(CodeValidation, "invalid json: "+err.Error())
}

// fromValidator flattens validator field errors into one message.
func fromValidator(err error) *Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return validationError(err.Error())
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return validationError(strings.Join(parts, "; "))
}

// classify maps domain errors onto API errors.
func classify(err error) *Error {
	var ae *Error
	switch {
	case errors.As(err, &ae):
		return ae
	case errors.Is(err, session.ErrNotFound), errors.Is(err, auditstore.ErrNotFound):
		return newError(CodeNotFound, err.Error())
	case errors.Is(err, session.ErrVersionConflict), errors.Is(err, session.ErrExists),
		errors.Is(err, diagnostic.ErrSoftBottleneckAlreadySet):
		return newError(CodeConflict, err.Error())
	case errors.Is(err, session.ErrUnknownCommand), errors.Is(err, session.ErrMissingPayload),
		errors.Is(err, session.ErrNoVerdict), errors.Is(err, session.ErrInvalidScreen),
		errors.Is(err, session.ErrUnknownOffer), errors.Is(err, diagnostic.ErrUnknownSoftBottleneck),
		errors.Is(err, diagnostic.ErrPlanGeneration):
		return newError(CodeValidation, err.Error())
	case errors.Is(err, report.ErrPDFUnavailable):
		return newError(CodeUnavailable, err.Error())
	default:
		return newError(CodeInternal, err.Error())
	}
}

func writeError(w http.ResponseWriter, err error) {
	ae := classify(err)
	if ae.Status >= 500 {
		log.Error().Err(err).Str("code", ae.Code).Msg("request failed")
	}
	writeJSON(w, ae.Status, map[string]any{
		"ok": false,
		"error": map[string]any{
			"code":    ae.Code,
			"message": ae.Message,
		},
	})
}
