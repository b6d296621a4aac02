package model

// ExamSummary identifies an exam in the listing. Immutable once published.
type ExamSummary struct {
	ID              string `json:"id" yaml:"id" binding:"required,max=64"`
	Title           string `json:"title" yaml:"title" binding:"required,max=255"`
	DurationMinutes int    `json:"durationMinutes" yaml:"durationMinutes" binding:"min=0,max=480"`
	// Icon is a presentation hint ("js", "css", "react"); anything else renders a generic icon.
	Icon string `json:"icon,omitempty" yaml:"icon,omitempty"`
}

// ApprovedLink is shown to the visitor after passing an exam.
type ApprovedLink struct {
	URL             string `json:"url" yaml:"url" binding:"required"`
	Text            string `json:"text" yaml:"text" binding:"required"`
	Color           string `json:"color,omitempty" yaml:"color,omitempty"`
	ForegroundColor string `json:"foregroundColor,omitempty" yaml:"foregroundColor,omitempty"`
	Icon            string `json:"icon,omitempty" yaml:"icon,omitempty"`
}

// ExamDetails is the summary plus the approval fields.
type ExamDetails struct {
	ExamSummary        `yaml:",inline"`
	ApprovalPercentage int           `json:"approvalPercentage" yaml:"approvalPercentage" binding:"min=0,max=100"`
	ApprovedLink       *ApprovedLink `json:"approvedLink,omitempty" yaml:"approvedLink,omitempty" binding:"omitempty"`
}

// ExamRecord is the full exam as served by GET /exams/{id}.
// It is loaded once per session and never mutated afterwards.
type ExamRecord struct {
	Exam      ExamDetails `json:"exam" yaml:"exam"`
	Questions []Question  `json:"questions" yaml:"questions" binding:"required,min=1,dive"`
}

// Question returns the question with the given id.
func (r *ExamRecord) Question(id int) (*Question, bool) {
	for i := range r.Questions {
		if r.Questions[i].ID == id {
			return &r.Questions[i], true
		}
	}
	return nil, false
}

// DurationSeconds is the countdown budget for one attempt.
func (r *ExamRecord) DurationSeconds() int {
	return r.Exam.DurationMinutes * 60
}
