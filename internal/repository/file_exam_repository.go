package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lautarok/yourstack/internal/model"
)

// ErrPathEscape is returned when a catalogue path points outside the root.
var ErrPathEscape = errors.New("path escapes exam root")

// indexEntry is one row of the exams index file. The questions live in a
// separate data file referenced by DataFilePath, relative to the root.
type indexEntry struct {
	model.ExamDetails `yaml:",inline"`
	DataFilePath      string `json:"dataFilePath" yaml:"dataFilePath"`
}

type dataFile struct {
	Questions []model.Question `json:"questions" yaml:"questions"`
}

// FileExamRepository reads exams from an index file plus one data file per
// exam. Files ending in .yaml or .yml are decoded as YAML, anything else as JSON.
// Files are re-read on every call; caching belongs to the service layer.
type FileExamRepository struct {
	root      string
	indexPath string
}

// NewFileExamRepository creates a repository rooted at root. indexPath is
// resolved relative to root.
func NewFileExamRepository(root, indexPath string) *FileExamRepository {
	return &FileExamRepository{root: root, indexPath: indexPath}
}

// ListExams returns the summaries in index order.
func (r *FileExamRepository) ListExams(ctx context.Context) ([]model.ExamSummary, error) {
	entries, err := r.readIndex(ctx)
	if err != nil {
		return nil, err
	}
	exams := make([]model.ExamSummary, 0, len(entries))
	for _, e := range entries {
		exams = append(exams, e.ExamSummary)
	}
	return exams, nil
}

// GetExam joins the index entry with its data file and validates the result.
func (r *FileExamRepository) GetExam(ctx context.Context, examID string) (*model.ExamRecord, error) {
	entries, err := r.readIndex(ctx)
	if err != nil {
		return nil, err
	}

	var entry *indexEntry
	for i := range entries {
		if entries[i].ID == examID {
			entry = &entries[i]
			break
		}
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrExamNotFound, examID)
	}

	path, err := r.resolve(entry.DataFilePath)
	if err != nil {
		return nil, err
	}
	var data dataFile
	if err := decodeFile(path, &data); err != nil {
		return nil, fmt.Errorf("read exam %s: %w", examID, err)
	}

	rec := &model.ExamRecord{Exam: entry.ExamDetails, Questions: data.Questions}
	if err := ValidateRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *FileExamRepository) readIndex(ctx context.Context) ([]indexEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := r.resolve(r.indexPath)
	if err != nil {
		return nil, err
	}
	var entries []indexEntry
	if err := decodeFile(path, &entries); err != nil {
		return nil, fmt.Errorf("read exams index: %w", err)
	}
	return entries, nil
}

// resolve joins rel onto the root and rejects anything that lands outside it.
func (r *FileExamRepository) resolve(rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %q", ErrPathEscape, rel)
	}
	root, err := filepath.Abs(r.root)
	if err != nil {
		return "", fmt.Errorf("resolve exam root: %w", err)
	}
	full := filepath.Join(root, rel)
	inside, err := filepath.Rel(root, full)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrPathEscape, rel)
	}
	return full, nil
}

func decodeFile(path string, dst any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, dst)
	default:
		err = json.Unmarshal(raw, dst)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrMalformedRecord, filepath.Base(path), err)
	}
	return nil
}
