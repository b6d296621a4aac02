package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lautarok/yourstack/internal/config"
	"github.com/lautarok/yourstack/internal/model"
	"github.com/lautarok/yourstack/internal/repository"
)

// ExamService serves the exam catalogue with an optional Redis read-through
// cache in front of the configured source.
type ExamService struct {
	source repository.ExamSource
	rdb    *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewExamService creates a new ExamService. rdb may be nil, in which case
// every call goes straight to the source.
func NewExamService(source repository.ExamSource, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *ExamService {
	return &ExamService{
		source: source,
		rdb:    rdb,
		ttl:    ttl,
		log:    log.With().Str("component", "exam_service").Logger(),
	}
}

// ListExams returns the published exam summaries.
func (s *ExamService) ListExams(ctx context.Context) ([]model.ExamSummary, error) {
	key := config.CacheKey.ExamIndexKey()

	var exams []model.ExamSummary
	if s.getCached(ctx, key, &exams) {
		return exams, nil
	}

	exams, err := s.source.ListExams(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	if exams == nil {
		exams = []model.ExamSummary{}
	}
	s.setCached(ctx, key, exams)
	return exams, nil
}

// GetExam returns the full record for examID. Any source failure, malformed
// data included, is reported as ErrExamNotFound wrapping the cause.
func (s *ExamService) GetExam(ctx context.Context, examID string) (*model.ExamRecord, error) {
	key := config.CacheKey.ExamRecordKey(examID)

	var rec model.ExamRecord
	if s.getCached(ctx, key, &rec) {
		err := repository.ValidateRecord(&rec)
		if err == nil {
			return &rec, nil
		}
		s.log.Warn().Err(err).Str("key", key).Msg("Dropping malformed cached record")
		s.rdb.Del(ctx, key)
	}

	loaded, err := s.source.GetExam(ctx, examID)
	if err != nil {
		if !errors.Is(err, repository.ErrExamNotFound) {
			s.log.Warn().Err(err).Str("exam_id", examID).Msg("Exam source failed")
		}
		return nil, fmt.Errorf("%w: %w", repository.ErrExamNotFound, err)
	}
	s.setCached(ctx, key, loaded)
	return loaded, nil
}

// WarmExamCache loads one exam from the source and stores it in Redis.
func (s *ExamService) WarmExamCache(ctx context.Context, examID string) error {
	if s.rdb == nil {
		return nil
	}
	rec, err := s.source.GetExam(ctx, examID)
	if err != nil {
		return fmt.Errorf("load exam: %w", err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := s.rdb.Set(ctx, config.CacheKey.ExamRecordKey(examID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("exam_id", examID).
		Int("questions", len(rec.Questions)).
		Msg("Cache warmed")
	return nil
}

// PrewarmAllCaches refreshes the listing and every exam record in Redis.
// Broken exams are skipped so one bad data file cannot block the rest.
func (s *ExamService) PrewarmAllCaches(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}

	exams, err := s.source.ListExams(ctx)
	if err != nil {
		return fmt.Errorf("list exams: %w", err)
	}
	if len(exams) == 0 {
		s.log.Info().Msg("No exams to prewarm")
		return nil
	}

	s.log.Info().Int("count", len(exams)).Msg("Prewarming exams...")

	warmed := 0
	for _, e := range exams {
		if err := s.WarmExamCache(ctx, e.ID); err != nil {
			s.log.Warn().
				Err(err).
				Str("exam_id", e.ID).
				Msg("Failed to warm exam, skipping")
			continue
		}
		warmed++
	}
	s.setCached(ctx, config.CacheKey.ExamIndexKey(), exams)

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(exams)).
		Msg("Prewarming complete")
	return nil
}

// getCached reports a hit only when the value decoded cleanly. Redis errors
// degrade to a miss.
func (s *ExamService) getCached(ctx context.Context, key string, dst any) bool {
	if s.rdb == nil {
		return false
	}
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Dropping undecodable cache entry")
		s.rdb.Del(ctx, key)
		return false
	}
	return true
}

func (s *ExamService) setCached(ctx context.Context, key string, v any) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Cache encode failed")
		return
	}
	if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}
