package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/lautarok/yourstack/internal/response"
	"github.com/lautarok/yourstack/internal/service"
)

// ExamHandler serves the read-only exam catalogue.
type ExamHandler struct {
	examService *service.ExamService
	log         zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		examService: examService,
		log:         log.With().Str("component", "exam_handler").Logger(),
	}
}

// ListExams godoc
// GET /api/v1/exams
// Lists every published exam in catalogue order.
func (h *ExamHandler) ListExams(c *gin.Context) {
	exams, err := h.examService.ListExams(c.Request.Context())
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// GetExam godoc
// GET /api/v1/exams/:exam_id
// Returns the exam with its questions in authored order.
// Correct answers are included: scoring happens client side as well.
func (h *ExamHandler) GetExam(c *gin.Context) {
	rec, err := h.examService.GetExam(c.Request.Context(), c.Param("exam_id"))
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, rec)
}
