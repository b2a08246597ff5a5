package utils

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const (
	CodeValidationError = "validation-error"
	CodeServerError     = "server-error"

	MsgValidationError = "Invalid input data provided. Make sure your input is correct and try again."
	MsgServerError     = "There is an error when processing your request, please try again later."
)

// Envelope is the body shape of every API response.
type Envelope struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Results any    `json:"results,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to write JSON", "error", err)
	}
}

// WriteResults responds with {"results": v}. v is always emitted, so an empty
// slice is encoded as [].
func WriteResults(w http.ResponseWriter, status int, v any) {
	WriteJSON(w, status, struct {
		Results any `json:"results"`
	}{Results: v})
}

func WriteError(w http.ResponseWriter, status int, code, msg string) {
	WriteJSON(w, status, Envelope{Code: code, Message: msg})
}

func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Envelope{Message: msg})
}

func WriteValidationError(w http.ResponseWriter, fields map[string][]string) {
	WriteJSON(w, http.StatusBadRequest, Envelope{
		Code:    CodeValidationError,
		Message: MsgValidationError,
		Results: fields,
	})
}
