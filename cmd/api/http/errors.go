package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/whiskey-inventory/cmd/api/whiskey"
)

var statusByCode = map[string]int{
	whiskey.CodeBadRequest: http.StatusBadRequest,
	whiskey.CodeNotFound:   http.StatusNotFound,
	whiskey.CodeConflict:   http.StatusConflict,
	whiskey.CodeInternal:   http.StatusInternalServerError,
}

var errRouteNotFound = whiskey.ErrResponse{Code: whiskey.CodeNotFound, Message: "Route not found"}
var errMethodNotAllowed = whiskey.ErrResponse{Code: whiskey.CodeBadRequest, Message: "Method not allowed"}

/*
The one place errors become responses. Domain errors keep their code and message,
anything else (timeouts included) is logged with its cause and answered with a generic 500.
*/
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	logger := slog.With(slog.String("request_id", middleware.GetReqID(r.Context())))

	var errResp whiskey.ErrResponse
	if errors.As(err, &errResp) {
		status, ok := statusByCode[errResp.Code]
		if ok && status < http.StatusInternalServerError {
			logger.DebugContext(r.Context(), "request rejected", slog.String("code", errResp.Code), slog.String("error", err.Error()))
			responseJSON(w, status, errResp)
			return
		}
	}

	logger.ErrorContext(r.Context(), "unexpected error", slog.String("error", err.Error()))
	responseJSON(w, http.StatusInternalServerError, whiskey.ErrInternal)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	responseJSON(w, http.StatusNotFound, errRouteNotFound)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	responseJSON(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
}
