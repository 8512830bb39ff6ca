package api

import (
	"bytes"
	"encoding/json"
	"strings"
)

// StatusFlag normalizes the backend's two status encodings. Some endpoints
// return a JSON boolean, others the string "success"/"failure". Every
// decoder in this package goes through this type so the inconsistency stays
// in one place.
type StatusFlag bool

func (s *StatusFlag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*s = false
		return nil
	}
	switch {
	case bytes.Equal(b, []byte("true")):
		*s = true
		return nil
	case bytes.Equal(b, []byte("false")):
		*s = false
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		// Unknown encoding (number, object). Treat as not-ok rather than
		// failing the whole envelope.
		*s = false
		return nil
	}
	*s = StatusFlag(strings.EqualFold(strings.TrimSpace(str), "success"))
	return nil
}

// OK is the single predicate callers use.
func (s StatusFlag) OK() bool { return bool(s) }

// Envelope is the outer object wrapping every response: a status indicator,
// a human-readable message and an endpoint-specific payload alongside.
type Envelope struct {
	Status  StatusFlag `json:"status"`
	Message string     `json:"message"`
}
