package router

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
)

const maxBodyBytes = 64 << 10

// Request is the inbound request seen by a Handler.
type Request struct {
	*http.Request
}

// DecodeBody strictly decodes a single JSON object into dst. Unknown fields,
// trailing data and bodies over 64KB are rejected as invalid format.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return goerror.NewInvalidFormat()
	}

	return nil
}
