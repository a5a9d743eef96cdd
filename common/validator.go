package common

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateAndDecode decodes the JSON body into payload and runs struct validation on it.
func ValidateAndDecode(r *http.Request, payload interface{}) *AppError {
	return decode(r, payload, false)
}

// DecodeOptional is ValidateAndDecode for endpoints whose body may be omitted;
// the payload then keeps its zero value.
func DecodeOptional(r *http.Request, payload interface{}) *AppError {
	return decode(r, payload, true)
}

func decode(r *http.Request, payload interface{}, allowEmpty bool) *AppError {
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return NewAppError(http.StatusBadRequest, "Invalid request body", err)
		}
	}

	if err := validate.Struct(payload); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewAppError(http.StatusBadRequest, validationErrors.Error(), nil)
		}
		return NewAppError(http.StatusBadRequest, "Invalid request body", err)
	}

	return nil
}
