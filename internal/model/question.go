package model

import (
	"errors"
	"fmt"
)

// ErrMalformedRecord marks an exam record that breaks a structural invariant.
var ErrMalformedRecord = errors.New("malformed exam record")

// Option is one selectable answer. IDs are unique within a question.
type Option struct {
	ID   int    `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text" binding:"required"`
}

// Question is a single multiple-choice question. Options keep their authored order.
type Question struct {
	ID              int      `json:"id" yaml:"id"`
	Text            string   `json:"text" yaml:"text" binding:"required"`
	CodeFragment    *string  `json:"codeFragment,omitempty" yaml:"codeFragment,omitempty"`
	Options         []Option `json:"options" yaml:"options" binding:"required,min=1,dive"`
	CorrectAnswerID int      `json:"correctAnswerId" yaml:"correctAnswerId"`
}

// HasOption reports whether optionID belongs to this question.
func (q *Question) HasOption(optionID int) bool {
	for _, o := range q.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

// CheckInvariants verifies the id-level rules tag validation cannot express:
// unique question ids, unique option ids per question, and a correct answer
// that matches exactly one option.
func (r *ExamRecord) CheckInvariants() error {
	if len(r.Questions) == 0 {
		return fmt.Errorf("%w: exam %q has no questions", ErrMalformedRecord, r.Exam.ID)
	}

	seenQuestions := make(map[int]struct{}, len(r.Questions))
	for _, q := range r.Questions {
		if _, dup := seenQuestions[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %d", ErrMalformedRecord, q.ID)
		}
		seenQuestions[q.ID] = struct{}{}

		seenOptions := make(map[int]struct{}, len(q.Options))
		matches := 0
		for _, o := range q.Options {
			if _, dup := seenOptions[o.ID]; dup {
				return fmt.Errorf("%w: question %d has duplicate option id %d", ErrMalformedRecord, q.ID, o.ID)
			}
			seenOptions[o.ID] = struct{}{}
			if o.ID == q.CorrectAnswerID {
				matches++
			}
		}
		if matches != 1 {
			return fmt.Errorf("%w: question %d correct answer %d matches no option", ErrMalformedRecord, q.ID, q.CorrectAnswerID)
		}
	}
	return nil
}
