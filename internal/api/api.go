// Package api contains the thin HTTP controllers of the notifier. Handlers
// decode, validate, delegate to the core, and render either the result or an
// error envelope; no resolution logic lives here.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/tribeca/notifier/pkg/envelope"
)

// HeaderAppID carries the tenant id on every non-admin route.
const HeaderAppID = "X-App-Id"

func appID(r *http.Request) string {
	return r.Header.Get(HeaderAppID)
}

// decodeBody decodes an optional JSON body into dest. An absent body leaves
// dest zero-valued; malformed JSON writes a 1003 envelope and reports false.
func decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	err := json.NewDecoder(r.Body).Decode(dest)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeEnvelope(w, envelope.New(http.StatusBadRequest, envelope.ErrBodyParamsMissing,
		map[string]any{"details": err.Error()}))
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeEnvelope(w http.ResponseWriter, env *envelope.Envelope) {
	writeJSON(w, env.Status, env)
}

// writeError renders err's envelope when it carries one; anything else is a
// store-layer failure.
func writeError(w http.ResponseWriter, err error) {
	var env *envelope.Envelope
	if errors.As(err, &env) {
		writeEnvelope(w, env)
		return
	}
	writeEnvelope(w, envelope.New(http.StatusBadRequest, envelope.ErrStorage,
		map[string]any{"details": err.Error()}))
}
