package handler

import (
	"errors"
	"net/http"

	customError "github.com/hazina/sacco-engine/pkg/errors"
	"github.com/hazina/sacco-engine/pkg/response"
)

// writeError maps business error codes onto HTTP statuses. Anything without a
// business code is an internal failure.
func writeError(w http.ResponseWriter, err error) {
	var be *customError.BusinessError
	if !errors.As(err, &be) {
		response.InternalServerError(w, "Internal server error", err)
		return
	}

	status := http.StatusInternalServerError
	switch be.Code {
	case customError.ErrCodeNotFound:
		status = http.StatusNotFound
	case customError.ErrCodeValidation:
		status = http.StatusBadRequest
	case customError.ErrCodeUnauthorized:
		status = http.StatusUnauthorized
	case customError.ErrCodeForbidden:
		status = http.StatusForbidden
	case customError.ErrCodeInvalidTransition,
		customError.ErrCodeSelfGuarantee,
		customError.ErrCodeDuplicateRequest,
		customError.ErrCodeAlreadyCovered,
		customError.ErrCodeAlreadyResolved,
		customError.ErrCodeCapacityExceeded:
		status = http.StatusConflict
	}

	response.ErrorWithCode(w, status, be.Code, be.Message, be.Err)
}
