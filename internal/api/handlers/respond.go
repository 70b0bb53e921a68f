package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

const serverErrorMessage = "Ops, Server Error"

// envelope is the JSON object every handler responds with.
type envelope map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{"error": true, "message": message})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
