package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/mesh-intelligence/moviedex/pkg/types"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Message   string   `json:"message"`
	Fields    []string `json:"fields,omitempty"`
	RequestID string   `json:"requestId,omitempty"`
}

// messageBody acknowledges a mutation.
type messageBody struct {
	Message string      `json:"message"`
	ID      int64       `json:"id,omitempty"`
	Movie   *types.Wire `json:"movie,omitempty"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("encoding response", slog.String("error", err.Error()))
	}
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with the status from statusFor. Persistence
// failures carry the cause; anything unclassified is reported generically.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{
		Message:   err.Error(),
		RequestID: middleware.GetReqID(r.Context()),
	}

	var verr *types.ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}
	if status == http.StatusInternalServerError && !errors.Is(err, types.ErrPersistence) {
		body.Message = http.StatusText(status)
	}
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}

	writeJSON(w, status, body)
}

// decodeJSON reads the request body into dst. Decode failures become
// ValidationErrors so they map to 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return nil
	}

	var verr *types.ValidationError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &verr):
		return verr
	case errors.As(err, &typeErr):
		if typeErr.Field != "" {
			return types.NewValidationError("invalid field type", typeErr.Field)
		}
		return types.NewValidationError("invalid field type")
	case errors.As(err, &maxErr):
		return types.NewValidationError("request body too large")
	case errors.Is(err, io.EOF):
		return types.NewValidationError("request body is required")
	default:
		return types.NewValidationError("malformed JSON body")
	}
}
