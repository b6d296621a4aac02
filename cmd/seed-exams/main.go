package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/lautarok/yourstack/internal/config"
	"github.com/lautarok/yourstack/internal/database"
	"github.com/lautarok/yourstack/internal/logger"
	"github.com/lautarok/yourstack/internal/repository"
	"github.com/lautarok/yourstack/internal/validator"
)

// seed-exams copies the file catalogue (EXAMS_ROOT, EXAMS_INDEX) into
// PostgreSQL. Exams are upserted, so it is safe to run after every edit.
func main() {
	var only string
	flag.StringVar(&only, "exam", "", "Seed a single exam id instead of the whole index")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	validator.Setup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	files := repository.NewFileExamRepository(cfg.ExamsRoot, cfg.ExamsIndex)
	examRepo := repository.NewExamRepository(pool)

	exams, err := files.ListExams(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read exams index")
	}

	fmt.Printf("=== Seeding exams from %s ===\n", cfg.ExamsIndex)

	seeded, failed := 0, 0
	for position, e := range exams {
		if only != "" && e.ID != only {
			continue
		}
		rec, err := files.GetExam(ctx, e.ID)
		if err != nil {
			log.Error().Err(err).Str("exam_id", e.ID).Msg("Skipping unreadable exam")
			failed++
			continue
		}
		if err := examRepo.Upsert(ctx, rec, position); err != nil {
			log.Error().Err(err).Str("exam_id", e.ID).Msg("Failed to upsert exam")
			failed++
			continue
		}
		fmt.Printf("  %-12s %3d questions\n", e.ID, len(rec.Questions))
		seeded++
	}

	fmt.Printf("=== Done: %d seeded, %d failed ===\n", seeded, failed)
	if failed > 0 {
		log.Fatal().Int("failed", failed).Msg("Seeding incomplete")
	}
}
