package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/lautarok/yourstack/internal/model"
	"github.com/lautarok/yourstack/internal/validator"
)

// ErrExamNotFound is returned by every ExamSource for an unknown exam id.
var ErrExamNotFound = errors.New("exam not found")

// ExamSource is a read-only exam catalogue.
type ExamSource interface {
	// ListExams returns every published exam in catalogue order.
	ListExams(ctx context.Context) ([]model.ExamSummary, error)
	// GetExam returns the full record or ErrExamNotFound.
	GetExam(ctx context.Context, examID string) (*model.ExamRecord, error)
}

// ValidateRecord applies the binding tags and the id-level invariants.
func ValidateRecord(rec *model.ExamRecord) error {
	if err := validator.Struct(rec); err != nil {
		return fmt.Errorf("%w: exam %q: %v", model.ErrMalformedRecord, rec.Exam.ID, err)
	}
	return rec.CheckInvariants()
}
