package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hszk-dev/videocatalog/internal/domain/validation"
)

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, "failed to encode response", http.StatusInternalServerError)
		}
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func Error(w http.ResponseWriter, status int, err string, message string) {
	JSON(w, status, ErrorResponse{
		Error:   err,
		Message: message,
	})
}

// ValidationErrorResponse lists every validation error of a rejected command.
type ValidationErrorResponse struct {
	Message string                `json:"message"`
	Errors  []ValidationErrorItem `json:"errors"`
}

type ValidationErrorItem struct {
	Message string `json:"message"`
}

func ValidationError(w http.ResponseWriter, err *validation.NotificationError) {
	items := make([]ValidationErrorItem, 0, len(err.Errs))
	for _, e := range err.Errs {
		items = append(items, ValidationErrorItem{Message: e.Message})
	}
	JSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
		Message: err.Message,
		Errors:  items,
	})
}
