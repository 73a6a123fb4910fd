package router

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
	"github.com/shandysiswandi/authgate/internal/pkg/validator"
)

const defaultSuccessMessage = "request has been successfully"

type errorBody struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error,omitempty"`
}

type successBody struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// writeError maps err onto a status and envelope. Errors that are not
// goerror values never leak their text.
func writeError(w http.ResponseWriter, err error) {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "Internal server error"})
		return
	}

	body := errorBody{Message: gerr.Msg(), Error: gerr.Fields()}

	var verr validator.V10ValidationError
	if errors.As(err, &verr) {
		body.Error = verr.Values()
	}

	writeJSON(w, gerr.StatusCode(), body)
}

// writeSuccess encodes resp under "data". A resp with Message() sets the
// envelope message and one with StatusCode() sets the status.
func writeSuccess(w http.ResponseWriter, resp any) {
	status := http.StatusOK
	if sc, ok := resp.(interface{ StatusCode() int }); ok {
		status = sc.StatusCode()
	}
	if resp == nil || status == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	msg := defaultSuccessMessage
	if m, ok := resp.(interface{ Message() string }); ok {
		msg = m.Message()
	}

	writeJSON(w, status, successBody{Message: msg, Data: resp})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("router: failed to encode response", "error", err)
	}
}
