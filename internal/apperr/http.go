package apperr

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
)

// RedactedMessage replaces unclassified error text when redacting
const RedactedMessage = "internal server error"

// WriteJSON writes v with the given status
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Write maps err to a status and writes {"error": msg}. Unclassified and
// internal errors are reported as RedactedMessage when redact is set.
func Write(w http.ResponseWriter, err error, redact bool) {
	e, ok := As(err)
	if !ok {
		e = Internal(err)
	}

	msg := e.Error()
	if e.Kind == KindInternal && redact {
		msg = RedactedMessage
	}
	if e.Kind == KindRateLimited && e.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(e.RetryAfter.Seconds()))))
	}

	WriteJSON(w, e.Kind.Status(), map[string]string{"error": msg})
}
