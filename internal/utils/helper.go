package utils

import (
	"encoding/json"
	"net/http"
)

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// WriteJSONError writes {"error": message, "code": errCode}. errCode is the
// machine readable reason the client branches on.
func WriteJSONError(w http.ResponseWriter, message, errCode string, code int) {
	body := map[string]string{"error": message}
	if errCode != "" {
		body["code"] = errCode
	}
	WriteJSON(w, code, body)
}
