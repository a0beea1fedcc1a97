package inspect

import (
	"encoding/json"
	"net/http"
)

type envelope map[string]any

// response wraps http.ResponseWriter with the envelope helpers.
type response struct {
	w http.ResponseWriter
}

func newResponse(w http.ResponseWriter) *response { return &response{w: w} }

func (res *response) json(status int, data any) {
	res.w.Header().Set("Content-Type", "application/json")
	res.w.WriteHeader(status)
	_ = json.NewEncoder(res.w).Encode(data)
}

// success sends 200 JSON: {"data": v}
func (res *response) success(v any) {
	res.json(http.StatusOK, envelope{"data": v})
}

func (res *response) error(status int, message string) {
	res.json(status, envelope{"message": message})
}

func (res *response) notFound(message ...string) {
	msg := "Not found."
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	res.error(http.StatusNotFound, msg)
}
