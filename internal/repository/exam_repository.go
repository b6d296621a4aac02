package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lautarok/yourstack/internal/model"
)

// ExamRepository handles exam data access in PostgreSQL.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// ListExams returns every exam ordered by catalogue position.
func (r *ExamRepository) ListExams(ctx context.Context) ([]model.ExamSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, duration_minutes, icon
		 FROM exams
		 ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exams := []model.ExamSummary{}
	for rows.Next() {
		var e model.ExamSummary
		if err := rows.Scan(&e.ID, &e.Title, &e.DurationMinutes, &e.Icon); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// GetExam loads an exam with its questions in authored order.
func (r *ExamRepository) GetExam(ctx context.Context, examID string) (*model.ExamRecord, error) {
	rec := &model.ExamRecord{}
	var link []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, duration_minutes, icon, approval_percentage, approved_link
		 FROM exams WHERE id = $1`, examID,
	).Scan(&rec.Exam.ID, &rec.Exam.Title, &rec.Exam.DurationMinutes, &rec.Exam.Icon,
		&rec.Exam.ApprovalPercentage, &link)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrExamNotFound, examID)
	}
	if err != nil {
		return nil, err
	}
	if len(link) > 0 {
		rec.Exam.ApprovedLink = &model.ApprovedLink{}
		if err := json.Unmarshal(link, rec.Exam.ApprovedLink); err != nil {
			return nil, fmt.Errorf("%w: approved link of %s: %v", model.ErrMalformedRecord, examID, err)
		}
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, text, code_fragment, options, correct_answer_id
		 FROM questions WHERE exam_id = $1
		 ORDER BY position`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var q model.Question
		var options []byte
		if err := rows.Scan(&q.ID, &q.Text, &q.CodeFragment, &options, &q.CorrectAnswerID); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("%w: options of question %d: %v", model.ErrMalformedRecord, q.ID, err)
		}
		rec.Questions = append(rec.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := ValidateRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Upsert replaces an exam and all of its questions in one transaction.
// position fixes the exam's place in the listing.
func (r *ExamRepository) Upsert(ctx context.Context, rec *model.ExamRecord, position int) error {
	if err := ValidateRecord(rec); err != nil {
		return err
	}

	var link []byte
	if rec.Exam.ApprovedLink != nil {
		var err error
		if link, err = json.Marshal(rec.Exam.ApprovedLink); err != nil {
			return fmt.Errorf("encode approved link: %w", err)
		}
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO exams (id, title, duration_minutes, icon, approval_percentage, approved_link, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (id) DO UPDATE SET
			     title = EXCLUDED.title,
			     duration_minutes = EXCLUDED.duration_minutes,
			     icon = EXCLUDED.icon,
			     approval_percentage = EXCLUDED.approval_percentage,
			     approved_link = EXCLUDED.approved_link,
			     position = EXCLUDED.position,
			     updated_at = NOW()`,
			rec.Exam.ID, rec.Exam.Title, rec.Exam.DurationMinutes, rec.Exam.Icon,
			rec.Exam.ApprovalPercentage, link, position,
		)
		if err != nil {
			return fmt.Errorf("upsert exam %s: %w", rec.Exam.ID, err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE exam_id = $1`, rec.Exam.ID); err != nil {
			return fmt.Errorf("clear questions of %s: %w", rec.Exam.ID, err)
		}

		batch := &pgx.Batch{}
		for i, q := range rec.Questions {
			options, err := json.Marshal(q.Options)
			if err != nil {
				return fmt.Errorf("encode options of question %d: %w", q.ID, err)
			}
			batch.Queue(
				`INSERT INTO questions (exam_id, id, position, text, code_fragment, options, correct_answer_id)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				rec.Exam.ID, q.ID, i, q.Text, q.CodeFragment, options, q.CorrectAnswerID,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert questions of %s: %w", rec.Exam.ID, err)
		}
		return nil
	})
}
