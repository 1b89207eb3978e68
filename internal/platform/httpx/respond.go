// Package httpx writes docudesk JSON responses and RFC7807 problems. Every
// problem carries one of the Problem* type URIs so clients can branch on the
// failure kind without parsing titles.
package httpx

import (
	"encoding/json"
	"io"
	"net/http"
)

// Problem type URIs.
const (
	ProblemValidation        = "/problems/validation"
	ProblemNotFound          = "/problems/not-found"
	ProblemInvalidTransition = "/problems/invalid-transition"
	ProblemUnavailable       = "/problems/unavailable"
	ProblemInternal          = "/problems/internal"
)

// MaxBodyBytes bounds request bodies read by DecodeJSON.
const MaxBodyBytes = 1 << 20

// ProblemDetail represents RFC7807 problem details.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, "application/json", status, data)
}

// Problem sends an RFC7807 problem; the type URI follows from status.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	writeProblem(w, status, ProblemDetail{
		Type:   problemType(status),
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// DecodeJSON decodes at most MaxBodyBytes of the request body into target.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes)).Decode(target)
}

func writeProblem(w http.ResponseWriter, status int, body any) {
	write(w, "application/problem+json", status, body)
}

func write(w http.ResponseWriter, contentType string, status int, data any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func problemType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return ProblemValidation
	case http.StatusNotFound:
		return ProblemNotFound
	case http.StatusConflict:
		return ProblemInvalidTransition
	case http.StatusServiceUnavailable:
		return ProblemUnavailable
	default:
		return ProblemInternal
	}
}
