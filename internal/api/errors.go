package api

import "net/http"

// ErrorKind classifies a Management API failure the way spec.md's
// Error Handling Design classifies internal errors, so an operator
// driving ridgectl can tell a config mistake from a transient
// transport failure without parsing prose.
type ErrorKind string

const (
	KindConfig      ErrorKind = "config"
	KindTransport   ErrorKind = "transport"
	KindDocker      ErrorKind = "docker"
	KindHealthCheck ErrorKind = "health_check"
	KindACME        ErrorKind = "acme"
	KindPersistence ErrorKind = "persistence"
	KindConflict    ErrorKind = "conflict"
	KindNotFound    ErrorKind = "not_found"
)

// errorBody is the wire shape of every non-2xx Management API
// response: {"kind": "...", "message": "..."}.
type errorBody struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func httpStatusFor(kind ErrorKind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindConfig:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
