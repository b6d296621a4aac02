package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/lautarok/yourstack/internal/model"
	"github.com/lautarok/yourstack/internal/response"
	"github.com/lautarok/yourstack/internal/service"
	"github.com/lautarok/yourstack/internal/session"
	"github.com/lautarok/yourstack/internal/validator"
)

// SessionHandler drives exam attempts over plain HTTP. Every mutating
// endpoint answers with the resulting session state.
type SessionHandler struct {
	sessions *service.SessionService
	log      zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *service.SessionService, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		log:      log.With().Str("component", "session_handler").Logger(),
	}
}

// CreateSession godoc
// POST /api/v1/sessions
// Loads the exam and starts the countdown. 404 means the client should
// return to the exam index.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ctrl, err := h.sessions.Create(c.Request.Context(), req.ExamID)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, ctrl.Snapshot())
}

// GetSession godoc
// GET /api/v1/sessions/:session_id
func (h *SessionHandler) GetSession(c *gin.Context) {
	ctrl, ok := h.lookup(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, ctrl.Snapshot())
}

// SelectAnswer godoc
// PUT /api/v1/sessions/:session_id/answers
func (h *SessionHandler) SelectAnswer(c *gin.Context) {
	var req model.SelectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	ctrl, ok := h.lookup(c)
	if !ok {
		return
	}
	if err := ctrl.SelectAnswer(*req.QuestionID, *req.OptionID); err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, ctrl.Snapshot())
}

// NextQuestion godoc
// POST /api/v1/sessions/:session_id/next
func (h *SessionHandler) NextQuestion(c *gin.Context) {
	ctrl, ok := h.lookup(c)
	if !ok {
		return
	}
	if err := ctrl.GoNext(); err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, ctrl.Snapshot())
}

// PreviousQuestion godoc
// POST /api/v1/sessions/:session_id/previous
// On the first question the visitor leaves the exam: the session is closed
// and the response is {"left": true}.
func (h *SessionHandler) PreviousQuestion(c *gin.Context) {
	ctrl, ok := h.lookup(c)
	if !ok {
		return
	}
	left, err := h.sessions.Previous(ctrl)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	if left {
		response.Success(c, http.StatusOK, gin.H{"left": true})
		return
	}
	response.Success(c, http.StatusOK, ctrl.Snapshot())
}

// Submit godoc
// POST /api/v1/sessions/:session_id/submit
func (h *SessionHandler) Submit(c *gin.Context) {
	ctrl, ok := h.lookup(c)
	if !ok {
		return
	}
	res, err := h.sessions.Submit(c.Request.Context(), ctrl)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// GetResult godoc
// GET /api/v1/sessions/:session_id/result
func (h *SessionHandler) GetResult(c *gin.Context) {
	ctrl, ok := h.lookup(c)
	if !ok {
		return
	}
	res, err := ctrl.Result()
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// LeaveSession godoc
// DELETE /api/v1/sessions/:session_id
// Abandons the attempt. Unknown ids succeed too.
func (h *SessionHandler) LeaveSession(c *gin.Context) {
	h.sessions.Close(c.Param("session_id"))
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) lookup(c *gin.Context) (*session.Controller, bool) {
	ctrl, err := h.sessions.Get(c.Param("session_id"))
	if err != nil {
		failWith(c, h.log, err)
		return nil, false
	}
	return ctrl, true
}
