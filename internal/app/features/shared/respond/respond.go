// internal/app/features/shared/respond/respond.go

// Package respond holds the JSON request/response helpers shared by every
// feature handler.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/fault"
)

var validate = validator.New()

type errorBody struct {
	Error string `json:"error"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Message writes a one-line error body.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorBody{Error: msg})
}

// Err maps a core error to its status via fault.Status. Internal errors
// are logged and masked; expected faults pass their message through.
func Err(w http.ResponseWriter, log *zap.Logger, err error) {
	status := fault.Status(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
		Message(w, status, "internal error")
		return
	}
	Message(w, status, err.Error())
}

// DecodeValid decodes the JSON body into v and runs struct validation.
// Returns false after writing a 400 when either step fails.
func DecodeValid(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Message(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := validate.Struct(v); err != nil {
		var verr validator.ValidationErrors
		if errors.As(err, &verr) && len(verr) > 0 {
			Message(w, http.StatusBadRequest, "validation failed on field "+verr[0].Field())
			return false
		}
		Message(w, http.StatusBadRequest, "validation failed")
		return false
	}
	return true
}
