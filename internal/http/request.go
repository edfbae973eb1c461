package http

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"

	"github.com/crowdwork/taskd/pkg/httpx"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// decodeJSON reads the request body into dst. On failure it writes a 422
// and returns false; handlers bail out immediately.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		httpx.WriteError(w, http.StatusUnprocessableEntity, "invalid request body")
		return false
	}
	return true
}

// fieldErrors accumulates input validation failures. The first failure is
// what the client sees, as a 422.
type fieldErrors []string

func (e *fieldErrors) requireNonEmpty(value, message string) {
	if strings.TrimSpace(value) == "" {
		*e = append(*e, message)
	}
}

func (e *fieldErrors) requireEmail(value string) {
	value = strings.TrimSpace(value)

	// Only bare addresses count. RFC 5322 also admits display-name forms
	// ("Bob <b@x.com>") and dotless domains, neither of which is a usable
	// account email or uniqueness key.
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		*e = append(*e, "invalid email")
		return
	}
	domainPart := value[strings.LastIndex(value, "@")+1:]
	if !strings.Contains(domainPart, ".") {
		*e = append(*e, "invalid email")
	}
}

func (e *fieldErrors) requirePassword(value string) {
	if len(value) < 8 {
		*e = append(*e, "password must be at least 8 characters")
	}
}

func (e *fieldErrors) requireMatch(a, b, message string) {
	if a != b {
		*e = append(*e, message)
	}
}

// write reports the first validation failure, if any, and returns whether
// a response was written.
func (e fieldErrors) write(w http.ResponseWriter) bool {
	if len(e) == 0 {
		return false
	}
	httpx.WriteError(w, http.StatusUnprocessableEntity, e[0])
	return true
}
