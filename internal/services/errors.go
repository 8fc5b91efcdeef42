package services

import (
	"errors"
	"net/http"
)

var (
	ErrConfiguration     = errors.New("configuration error")
	ErrUnauthorized      = errors.New("access token mismatch")
	ErrUpstreamTransport = errors.New("edinet request failed")
	ErrUpstreamStatus    = errors.New("edinet returned an error status")
	ErrUpstreamParse     = errors.New("edinet response is not valid json")
	ErrNestedBodyParse   = errors.New("edinet response body is not a valid document list")
	ErrMalformedEnvelope = errors.New("edinet response contains no document list")
	ErrNoDocuments       = errors.New("no matching documents")
	ErrFilesystem        = errors.New("filesystem error")
)

// HTTPStatus maps a pipeline error to the status code the fetch endpoint
// answers with. Unknown errors are internal.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNoDocuments):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
