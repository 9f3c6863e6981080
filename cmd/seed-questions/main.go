package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/zulumai/exam-portal/internal/config"
	"github.com/zulumai/exam-portal/internal/database"
	"github.com/zulumai/exam-portal/internal/logger"
	"github.com/zulumai/exam-portal/internal/model"
	"github.com/zulumai/exam-portal/internal/repository"
)

func main() {
	var (
		examTypeRaw string
		filePath    string
		replace     bool
	)
	flag.StringVar(&examTypeRaw, "type", string(model.ExamTypeStandard), "Exam type to seed (STANDARD or CONTINUOUS_ASSESSMENT)")
	flag.StringVar(&filePath, "file", "", "Path to a JSON file of questions")
	flag.BoolVar(&replace, "replace", false, "Delete the existing pool before seeding")
	flag.Parse()

	if filePath == "" {
		fmt.Println("Usage: seed-questions -type STANDARD -file questions.json [-replace]")
		os.Exit(1)
	}

	examType, err := model.ParseExamType(examTypeRaw)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	questionRepo := repository.NewQuestionRepository(pool)

	raw, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", filePath).Msg("Failed to read questions file")
	}

	var questions []model.SeedQuestion
	if err := json.Unmarshal(raw, &questions); err != nil {
		log.Fatal().Err(err).Msg("Failed to parse questions file")
	}

	for i, q := range questions {
		if q.Text == "" || len(q.Options) != model.OptionCount {
			log.Fatal().Int("index", i).Msg("Question must have text and exactly four options")
		}
		if q.CorrectOption < 0 || q.CorrectOption >= model.OptionCount {
			log.Fatal().Int("index", i).Msg("Correct option out of range")
		}
	}

	if replace {
		if err := questionRepo.DeleteByExamType(ctx, examType); err != nil {
			log.Fatal().Err(err).Msg("Failed to delete existing pool")
		}
		fmt.Printf("Deleted existing %s pool\n", examType)
	}

	if err := questionRepo.CreateBatch(ctx, examType, questions); err != nil {
		log.Fatal().Err(err).Msg("Failed to insert questions")
	}

	total, err := questionRepo.CountByExamType(ctx, examType)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to count pool")
	}

	fmt.Printf("Seeded %d questions; %s pool now holds %d (serves %d per session)\n",
		len(questions), examType, total, examType.QuestionCount())
}
