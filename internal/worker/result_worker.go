package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/zulumai/exam-portal/internal/config"
	"github.com/zulumai/exam-portal/internal/model"
	"github.com/zulumai/exam-portal/internal/repository"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultWorker drains the result queue and persists exam outcomes in
// batches. The session id is the primary key of exam_results, so a
// payload that gets requeued and replayed inserts at most once.
type ResultWorker struct {
	pool       *pgxpool.Pool
	rdb        *redis.Client
	resultRepo *repository.ResultRepository
	log        zerolog.Logger
}

func NewResultWorker(pool *pgxpool.Pool, rdb *redis.Client, resultRepo *repository.ResultRepository, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		pool:       pool,
		rdb:        rdb,
		resultRepo: resultRepo,
		log:        log.With().Str("component", "result_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]*model.ExamResult, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var res model.ExamResult
			if err := json.Unmarshal([]byte(item[1]), &res); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}
			if res.SessionID == uuid.Nil {
				w.log.Error().Msg("Payload missing session id, dropping")
				continue
			}

			batch = append(batch, &res)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert wrapper
// ----------------------------------------------------------------

func (w *ResultWorker) flushSafe(ctx context.Context, batch []*model.ExamResult) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkInsertResults(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk result insert failed, using fallback")

		for _, res := range batch {
			if err := w.resultRepo.Insert(ctx, res); err != nil {
				w.log.Error().Err(err).
					Str("session_id", res.SessionID.String()).
					Msg("single insert failed — requeueing")
				raw, _ := json.Marshal(res)
				w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
			}
		}
		return
	}

	w.log.Debug().Int("count", len(batch)).Msg("Result batch persisted")
}

// ----------------------------------------------------------------
// BULK PostgreSQL INSERT using UNNEST
// ----------------------------------------------------------------

func (w *ResultWorker) bulkInsertResults(ctx context.Context, batch []*model.ExamResult) error {
	n := len(batch)

	sessionIDs := make([]uuid.UUID, 0, n)
	userIDs := make([]uuid.UUID, 0, n)
	emails := make([]string, 0, n)
	examTypes := make([]string, 0, n)
	scores := make([]int, 0, n)
	percentages := make([]float64, 0, n)
	passes := make([]bool, 0, n)
	answers := make([]string, 0, n)
	recordedAts := make([]time.Time, 0, n)

	for _, res := range batch {
		rawAnswers, err := json.Marshal(res.Answers)
		if err != nil {
			return err
		}
		sessionIDs = append(sessionIDs, res.SessionID)
		userIDs = append(userIDs, res.UserID)
		emails = append(emails, res.UserEmail)
		examTypes = append(examTypes, string(res.ExamType))
		scores = append(scores, res.Score)
		percentages = append(percentages, res.Percentage)
		passes = append(passes, res.Passed)
		answers = append(answers, string(rawAnswers))
		recordedAts = append(recordedAts, res.RecordedAt)
	}

	query := `
		INSERT INTO exam_results
			(session_id, user_id, user_email, exam_type, score, percentage, passed, answers, recorded_at)
		SELECT
			u.session_id,
			u.user_id,
			u.user_email,
			u.exam_type,
			u.score,
			u.percentage,
			u.passed,
			u.answers::jsonb,
			u.recorded_at
		FROM UNNEST(
			$1::uuid[],
			$2::uuid[],
			$3::text[],
			$4::text[],
			$5::int[],
			$6::float8[],
			$7::bool[],
			$8::text[],
			$9::timestamptz[]
		) AS u (session_id, user_id, user_email, exam_type, score, percentage, passed, answers, recorded_at)
		ON CONFLICT (session_id) DO NOTHING
	`

	_, err := w.pool.Exec(ctx, query,
		sessionIDs, userIDs, emails, examTypes,
		scores, percentages, passes, answers, recordedAts,
	)
	return err
}
