package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lautarok/yourstack/internal/model"
)

const testIndex = `[
  {"id": "js", "title": "JavaScript", "durationMinutes": 10, "icon": "js",
   "approvalPercentage": 70, "dataFilePath": "data/js.json",
   "approvedLink": {"url": "https://example.com/next", "text": "Siguiente"}},
  {"id": "css", "title": "CSS", "durationMinutes": 5, "icon": "css",
   "approvalPercentage": 50, "dataFilePath": "data/css.yaml"},
  {"id": "broken", "title": "Broken", "durationMinutes": 5,
   "approvalPercentage": 50, "dataFilePath": "data/broken.json"},
  {"id": "escape", "title": "Escape", "durationMinutes": 5,
   "approvalPercentage": 50, "dataFilePath": "../outside.json"}
]`

const testJSONData = `{"questions": [
  {"id": 3, "text": "third first", "options": [{"id": 9, "text": "z"}, {"id": 1, "text": "a"}], "correctAnswerId": 1},
  {"id": 1, "text": "then one", "codeFragment": "let x = 1;", "options": [{"id": 2, "text": "b"}, {"id": 5, "text": "e"}, {"id": 4, "text": "d"}], "correctAnswerId": 4}
]}`

const testYAMLData = `questions:
  - id: 3
    text: third first
    options:
      - id: 9
        text: z
      - id: 1
        text: a
    correctAnswerId: 1
  - id: 1
    text: then one
    codeFragment: "let x = 1;"
    options:
      - id: 2
        text: b
      - id: 5
        text: e
      - id: 4
        text: d
    correctAnswerId: 4
`

// broken has a correct answer that matches no option.
const testBrokenData = `{"questions": [
  {"id": 1, "text": "q", "options": [{"id": 1, "text": "a"}], "correctAnswerId": 7}
]}`

func writeCatalogue(t *testing.T) *FileExamRepository {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"data/exams-index.json": testIndex,
		"data/js.json":          testJSONData,
		"data/css.yaml":         testYAMLData,
		"data/broken.json":      testBrokenData,
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return NewFileExamRepository(root, "data/exams-index.json")
}

func TestFileListExamsKeepsIndexOrder(t *testing.T) {
	t.Parallel()
	repo := writeCatalogue(t)

	exams, err := repo.ListExams(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"js", "css", "broken", "escape"}
	if len(exams) != len(want) {
		t.Fatalf("expected %d exams, got %d", len(want), len(exams))
	}
	for i, id := range want {
		if exams[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, exams[i].ID)
		}
	}
	if exams[0].Title != "JavaScript" || exams[0].DurationMinutes != 10 || exams[0].Icon != "js" {
		t.Fatalf("unexpected summary %+v", exams[0])
	}
}

func TestFileGetExamPreservesOrdering(t *testing.T) {
	t.Parallel()
	repo := writeCatalogue(t)

	for _, id := range []string{"js", "css"} {
		rec, err := repo.GetExam(context.Background(), id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
		if got := []int{rec.Questions[0].ID, rec.Questions[1].ID}; got[0] != 3 || got[1] != 1 {
			t.Fatalf("%s: question order changed: %v", id, got)
		}
		var opts []int
		for _, o := range rec.Questions[1].Options {
			opts = append(opts, o.ID)
		}
		if len(opts) != 3 || opts[0] != 2 || opts[1] != 5 || opts[2] != 4 {
			t.Fatalf("%s: option order changed: %v", id, opts)
		}
		if rec.Questions[1].CodeFragment == nil || *rec.Questions[1].CodeFragment != "let x = 1;" {
			t.Fatalf("%s: code fragment lost", id)
		}
		if rec.Questions[0].CodeFragment != nil {
			t.Fatalf("%s: unexpected code fragment", id)
		}
	}
}

func TestFileGetExamCarriesApprovalFields(t *testing.T) {
	t.Parallel()
	repo := writeCatalogue(t)

	rec, err := repo.GetExam(context.Background(), "js")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Exam.ApprovalPercentage != 70 {
		t.Fatalf("expected approval 70, got %d", rec.Exam.ApprovalPercentage)
	}
	if rec.Exam.ApprovedLink == nil || rec.Exam.ApprovedLink.URL != "https://example.com/next" {
		t.Fatalf("approved link not loaded: %+v", rec.Exam.ApprovedLink)
	}
	if rec.DurationSeconds() != 600 {
		t.Fatalf("expected 600s, got %d", rec.DurationSeconds())
	}
}

func TestFileGetExamErrors(t *testing.T) {
	t.Parallel()
	repo := writeCatalogue(t)

	tests := []struct {
		id   string
		want error
	}{
		{"missing", ErrExamNotFound},
		{"broken", model.ErrMalformedRecord},
		{"escape", ErrPathEscape},
	}
	for _, tt := range tests {
		_, err := repo.GetExam(context.Background(), tt.id)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.id, tt.want, err)
		}
	}
}

func TestFileIndexMissing(t *testing.T) {
	t.Parallel()
	repo := NewFileExamRepository(t.TempDir(), "data/exams-index.json")
	if _, err := repo.ListExams(context.Background()); err == nil {
		t.Fatal("expected error for missing index")
	}
}

func TestResolveRejectsEscapes(t *testing.T) {
	t.Parallel()
	repo := NewFileExamRepository(t.TempDir(), "index.json")

	for _, rel := range []string{"", "../x.json", "a/../../x.json", "/etc/passwd"} {
		if _, err := repo.resolve(rel); !errors.Is(err, ErrPathEscape) {
			t.Errorf("%q: expected ErrPathEscape, got %v", rel, err)
		}
	}
	if _, err := repo.resolve("data/../data/js.json"); err != nil {
		t.Errorf("in-root path rejected: %v", err)
	}
}
