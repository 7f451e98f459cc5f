package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/matzehuels/railmap/pkg/errors"
	"github.com/matzehuels/railmap/pkg/feed"
	"github.com/matzehuels/railmap/pkg/network"
)

type errorBody struct {
	Error struct {
		Code      errors.Code `json:"code"`
		Message   string      `json:"message"`
		RequestID string      `json:"request_id,omitempty"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err, "request_id", RequestID(r.Context()))
	}

	var body errorBody
	body.Error.Code = code
	body.Error.Message = errors.UserMessage(err)
	body.Error.RequestID = RequestID(r.Context())
	writeJSON(w, status, body)
}

// classify maps an error to an HTTP status and an error code. Upstream feed
// failures are reported as gateway errors.
func classify(err error) (int, errors.Code) {
	switch {
	case stderrors.Is(err, feed.ErrNotFound):
		return http.StatusBadGateway, errors.ErrCodeNotFound
	case stderrors.Is(err, network.ErrDecode):
		return http.StatusBadGateway, errors.ErrCodeInvalidFeed
	case stderrors.Is(err, feed.ErrNetwork):
		return http.StatusBadGateway, errors.ErrCodeNetwork
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errors.ErrCodeTimeout
	}

	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	return code.Status(), code
}
