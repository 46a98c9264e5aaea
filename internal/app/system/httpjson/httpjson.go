// Package httpjson holds the JSON request/response conventions shared by
// the feature handlers: envelope-free payloads on success, a
// {success:false, error} object on failure.
package httpjson

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// maxBodyBytes caps request bodies; thread text and profile fields are
// small, so anything past this is abuse.
const maxBodyBytes = 1 << 20

// Write sends v as JSON with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error sends the standard failure object.
func Error(w http.ResponseWriter, status int, msg string) {
	Write(w, status, map[string]any{"success": false, "error": msg})
}

// Decode reads the request body into dst, enforcing the size cap and
// rejecting trailing garbage.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected trailing data")
	}
	return nil
}
