package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lautarok/yourstack/internal/model"
	"github.com/lautarok/yourstack/internal/repository"
)

type stubSource struct {
	exams   []model.ExamSummary
	records map[string]*model.ExamRecord
	err     error
	calls   int
}

func (s *stubSource) ListExams(context.Context) ([]model.ExamSummary, error) {
	s.calls++
	return s.exams, s.err
}

func (s *stubSource) GetExam(_ context.Context, id string) (*model.ExamRecord, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, repository.ErrExamNotFound
	}
	return rec, nil
}

func sampleRecord(id string, minutes int) *model.ExamRecord {
	return &model.ExamRecord{
		Exam: model.ExamDetails{
			ExamSummary:        model.ExamSummary{ID: id, Title: id, DurationMinutes: minutes},
			ApprovalPercentage: 50,
		},
		Questions: []model.Question{
			{ID: 1, Text: "q1", Options: []model.Option{{ID: 1, Text: "a"}, {ID: 2, Text: "b"}}, CorrectAnswerID: 1},
			{ID: 2, Text: "q2", Options: []model.Option{{ID: 1, Text: "a"}, {ID: 2, Text: "b"}}, CorrectAnswerID: 2},
		},
	}
}

func TestExamServiceWithoutCache(t *testing.T) {
	src := &stubSource{
		exams:   []model.ExamSummary{{ID: "js"}, {ID: "css"}},
		records: map[string]*model.ExamRecord{"js": sampleRecord("js", 1)},
	}
	svc := NewExamService(src, nil, time.Minute, zerolog.Nop())

	exams, err := svc.ListExams(context.Background())
	if err != nil || len(exams) != 2 || exams[0].ID != "js" {
		t.Fatalf("unexpected listing %v (%v)", exams, err)
	}

	rec, err := svc.GetExam(context.Background(), "js")
	if err != nil || rec.Exam.ID != "js" {
		t.Fatalf("unexpected record %+v (%v)", rec, err)
	}

	if err := svc.PrewarmAllCaches(context.Background()); err != nil {
		t.Fatalf("prewarm without redis should be a no-op: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("expected 2 source calls, got %d", src.calls)
	}
}

func TestExamServiceEmptyListing(t *testing.T) {
	svc := NewExamService(&stubSource{}, nil, time.Minute, zerolog.Nop())
	exams, err := svc.ListExams(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if exams == nil || len(exams) != 0 {
		t.Fatalf("expected empty non-nil listing, got %#v", exams)
	}
}

func TestExamServiceFailuresAreNotFound(t *testing.T) {
	tests := []struct {
		name string
		src  *stubSource
	}{
		{"unknown id", &stubSource{}},
		{"malformed", &stubSource{err: model.ErrMalformedRecord}},
		{"io failure", &stubSource{err: errors.New("read failed")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewExamService(tt.src, nil, time.Minute, zerolog.Nop())
			_, err := svc.GetExam(context.Background(), "js")
			if !errors.Is(err, repository.ErrExamNotFound) {
				t.Fatalf("expected ErrExamNotFound, got %v", err)
			}
		})
	}
}
