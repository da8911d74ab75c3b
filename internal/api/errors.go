package api

import (
	"errors"
	"log/slog"
	"net/http"
)

// GenericFailure is the only failure text callers ever see for server errors.
const GenericFailure = "There was an error processing your query. Please try again later."

type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"detail"`
}

func (e *AppError) Error() string {
	return e.Message
}

var (
	ErrBadRequest     = &AppError{Code: http.StatusBadRequest, Message: "invalid request body"}
	ErrNotFound       = &AppError{Code: http.StatusNotFound, Message: "not found"}
	ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Message: GenericFailure}
)

func NewBadRequestError(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: msg}
}

func NewValidationError(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: msg}
}

// HandleError writes err as JSON. Anything that is not an AppError is logged
// in full and reported as GenericFailure.
func HandleError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		JSONErrorMessage(w, appErr.Code, appErr.Message)
		return
	}
	slog.Error("api: unhandled error", "error", err)
	JSONErrorMessage(w, http.StatusInternalServerError, GenericFailure)
}
