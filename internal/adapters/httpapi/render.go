package httpapi

import (
	"encoding/json"
	"net/http"
)

// errorResponse is the body of every non-2xx reply
type errorResponse struct {
	Error string `json:"error"`
}

// renderJSON sets the JSON headers, writes the status and encodes data
func renderJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Expires", "-1")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func renderError(w http.ResponseWriter, status int, message string) error {
	return renderJSON(w, status, errorResponse{Error: message})
}
