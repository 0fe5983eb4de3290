package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
)

const (
	msgUnauthorized = "Please authenticate."
	msgInternal     = "internal error"
	msgNotFound     = "not found"

	maxBodyBytes = 1 << 20
)

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to status codes. Store failures are logged
// and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, l logging.Logger, err error) {
	var ve *services.ValidationError

	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: ve.Message, Fields: ve.Fields})
	case errors.Is(err, common.ErrorValidation):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, common.ErrorInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: common.ErrorInvalidCredentials.Error()})
	case errors.Is(err, common.ErrorUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: msgUnauthorized})
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: msgNotFound})
	default:
		l.Error(r.Context(), "request failed", "error", err, "request_id", requestIDFrom(r.Context()))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: msgInternal})
	}
}

// decodeJSON reads a single JSON value from the body. Malformed input is a
// validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &services.ValidationError{Message: "request body is empty"}
		}
		return &services.ValidationError{Message: "invalid JSON body"}
	}
	return nil
}
