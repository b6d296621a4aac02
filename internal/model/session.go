package model

import "time"

// Phase is the lifecycle stage of an exam attempt.
type Phase string

const (
	PhaseLoading    Phase = "loading"
	PhaseInProgress Phase = "in_progress"
	PhaseSubmitted  Phase = "submitted"
)

// SubmitReason records what ended an attempt.
type SubmitReason string

const (
	SubmitManual  SubmitReason = "manual"
	SubmitExpired SubmitReason = "expired"
)

// TimeLevel is the urgency band of the remaining time.
type TimeLevel string

const (
	TimeNormal   TimeLevel = "normal"
	TimeWarning  TimeLevel = "warning"
	TimeCritical TimeLevel = "critical"
)

// SessionState is a read-only snapshot of one attempt.
// CurrentQuestionIndex and SecondsRemaining carry no meaning once submitted.
type SessionState struct {
	ID                   string       `json:"id"`
	ExamID               string       `json:"examId"`
	Phase                Phase        `json:"phase"`
	CurrentQuestionIndex int          `json:"currentQuestionIndex"`
	SecondsRemaining     int          `json:"secondsRemaining"`
	Clock                string       `json:"clock"`
	TimeLevel            TimeLevel    `json:"timeLevel"`
	Answers              map[int]int  `json:"answers"`
	AnsweredCount        int          `json:"answeredCount"`
	TotalQuestions       int          `json:"totalQuestions"`
	CurrentQuestion      *Question    `json:"currentQuestion,omitempty"`
	SubmitReason         SubmitReason `json:"submitReason,omitempty"`
	SubmittedAt          *time.Time   `json:"submittedAt,omitempty"`
}

// Complete reports whether every question has a selected option.
func (s SessionState) Complete() bool {
	return s.TotalQuestions > 0 && s.AnsweredCount == s.TotalQuestions
}

// Result is the scored outcome of a submitted attempt.
type Result struct {
	CorrectCount       int           `json:"correctCount"`
	TotalCount         int           `json:"totalCount"`
	Percentage         int           `json:"percentage"`
	ApprovalPercentage int           `json:"approvalPercentage"`
	Passed             bool          `json:"passed"`
	ApprovedLink       *ApprovedLink `json:"approvedLink,omitempty"`
	Reason             SubmitReason  `json:"reason,omitempty"`
}

// CreateSessionRequest is the payload for starting an attempt.
type CreateSessionRequest struct {
	ExamID string `json:"exam_id" binding:"required,max=64"`
}

// SelectAnswerRequest is the payload for choosing an option.
type SelectAnswerRequest struct {
	QuestionID *int `json:"question_id" binding:"required"`
	OptionID   *int `json:"option_id" binding:"required"`
}
