package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// JSON writes data as the whole response body.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func JSONErrorMessage(w http.ResponseWriter, status int, message string) {
	JSON(w, status, AppError{Message: message})
}

// Decode reads a JSON body into v and validates it. The returned error is
// an AppError ready for HandleError.
func Decode(r *http.Request, validate *validator.Validate, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return ErrBadRequest
	}
	if err := validate.Struct(v); err != nil {
		return NewValidationError(err.Error())
	}
	return nil
}
