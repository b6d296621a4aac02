package model

import (
	"errors"
	"testing"
)

func sampleRecord() *ExamRecord {
	return &ExamRecord{
		Exam: ExamDetails{
			ExamSummary:        ExamSummary{ID: "js", Title: "JavaScript", DurationMinutes: 10},
			ApprovalPercentage: 60,
		},
		Questions: []Question{
			{ID: 1, Text: "q1", Options: []Option{{ID: 1, Text: "a"}, {ID: 2, Text: "b"}}, CorrectAnswerID: 2},
			{ID: 2, Text: "q2", Options: []Option{{ID: 1, Text: "a"}, {ID: 2, Text: "b"}}, CorrectAnswerID: 1},
		},
	}
}

func TestCheckInvariants(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *ExamRecord)
		ok     bool
	}{
		{name: "valid", mutate: func(r *ExamRecord) {}, ok: true},
		{name: "no questions", mutate: func(r *ExamRecord) { r.Questions = nil }},
		{name: "duplicate question", mutate: func(r *ExamRecord) { r.Questions[1].ID = 1 }},
		{name: "duplicate option", mutate: func(r *ExamRecord) { r.Questions[0].Options[1].ID = 1 }},
		{name: "dangling correct answer", mutate: func(r *ExamRecord) { r.Questions[0].CorrectAnswerID = 9 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sampleRecord()
			tt.mutate(r)
			err := r.CheckInvariants()
			if tt.ok && err != nil {
				t.Fatalf("expected valid record, got %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrMalformedRecord) {
				t.Fatalf("expected ErrMalformedRecord, got %v", err)
			}
		})
	}
}

func TestRecordLookups(t *testing.T) {
	r := sampleRecord()
	q, ok := r.Question(2)
	if !ok || q.Text != "q2" {
		t.Fatalf("expected question 2, got %+v ok=%v", q, ok)
	}
	if _, ok := r.Question(3); ok {
		t.Fatal("question 3 should not exist")
	}
	if !q.HasOption(1) || q.HasOption(5) {
		t.Fatal("unexpected option membership")
	}
	if r.DurationSeconds() != 600 {
		t.Fatalf("expected 600 seconds, got %d", r.DurationSeconds())
	}
}
