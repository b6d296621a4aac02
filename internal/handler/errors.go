package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/lautarok/yourstack/internal/repository"
	"github.com/lautarok/yourstack/internal/response"
	"github.com/lautarok/yourstack/internal/service"
	"github.com/lautarok/yourstack/internal/session"
)

// classify maps a domain error onto an HTTP status and error code.
func classify(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, session.ErrSessionClosed):
		return http.StatusNotFound, response.ErrSessionNotFound
	case errors.Is(err, session.ErrExamNotFound), errors.Is(err, repository.ErrExamNotFound):
		return http.StatusNotFound, response.ErrNotFound
	case errors.Is(err, service.ErrIncompleteAnswers):
		return http.StatusConflict, response.ErrIncompleteAnswers
	case errors.Is(err, session.ErrPrecondition):
		return http.StatusConflict, response.ErrPreconditionFailed
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// failWith writes the error envelope for err. Precondition violations mean a
// misbehaving client and are logged loudly; server errors more so.
func failWith(c *gin.Context, log zerolog.Logger, err error) {
	status, code := classify(err)
	switch {
	case status >= http.StatusInternalServerError:
		log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg("Request failed")
	case code == response.ErrPreconditionFailed:
		log.Warn().Err(err).Str("request_id", response.RequestID(c)).Msg("Session precondition violated")
	}
	response.Fail(c, status, code)
}
