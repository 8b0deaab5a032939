package router

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/trafficai/internal/pkg/goerror"
)

const maxBodyBytes = 64 * 1024

// Request wraps http.Request with helpers for inbound handlers.
type Request struct {
	// Request is the underlying http.Request.
	*http.Request
}

// GetParam reads a path parameter from the request context (as stored by httprouter).
func (r *Request) GetParam(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

// DecodeBody decodes a single JSON object from the body into dst.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Request == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return goerror.NewInvalidFormat()
	}

	return nil
}
