package router

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/shandysiswandi/cardnote/internal/pkg/goerror"
)

// maxBodyBytes bounds request bodies; verification payloads are tiny.
const maxBodyBytes = 16 * 1024

// Request is what a Handler sees of the incoming call.
type Request struct {
	*http.Request
}

// GetQuery returns the trimmed query value for key.
func (r *Request) GetQuery(key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// DecodeBody reads exactly one JSON document into dst. Unknown fields,
// trailing data and bodies over maxBodyBytes are rejected with 400.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		return goerror.NewInvalidFormat("Request body is required")
	}

	lr := &io.LimitedReader{R: r.Body, N: maxBodyBytes + 1}
	dec := json.NewDecoder(lr)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	switch {
	case lr.N <= 0:
		return goerror.NewInvalidFormat("Request body is too large")
	case errors.Is(err, io.EOF):
		return goerror.NewInvalidFormat("Request body is required")
	case err != nil:
		return goerror.NewInvalidFormat()
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return goerror.NewInvalidFormat()
	}
	return nil
}
