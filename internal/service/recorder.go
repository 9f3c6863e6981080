package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/zulumai/exam-portal/internal/config"
	"github.com/zulumai/exam-portal/internal/model"
)

// ErrRecordingFailed means the finished exam's outcome could not be handed
// to the persistence queue. The locally computed summary is still
// authoritative; the loss is surfaced as a non-blocking notice and never
// retried by the student flow.
var ErrRecordingFailed = errors.New("result recording failed")

// ResultRecorder pushes finalized exam outcomes onto the Redis persistence
// queue. The result worker drains the queue into PostgreSQL in batches, so
// the write is fire-and-forget with respect to the summary screen.
//
// Record must be called at most once per session; the session's
// finalize-exactly-once guarantee makes that automatic for correct callers.
type ResultRecorder struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewResultRecorder creates a new ResultRecorder.
func NewResultRecorder(rdb *redis.Client, log zerolog.Logger) *ResultRecorder {
	return &ResultRecorder{
		rdb: rdb,
		log: log.With().Str("component", "result_recorder").Logger(),
	}
}

// Record enqueues the result for durable persistence.
func (r *ResultRecorder) Record(ctx context.Context, res *model.ExamResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrRecordingFailed, err)
	}

	if err := r.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, payload).Err(); err != nil {
		r.log.Error().Err(err).
			Str("session_id", res.SessionID.String()).
			Str("user_id", res.UserID.String()).
			Msg("Failed to enqueue result")
		return fmt.Errorf("%w: %v", ErrRecordingFailed, err)
	}

	r.log.Info().
		Str("session_id", res.SessionID.String()).
		Str("exam_type", string(res.ExamType)).
		Int("score", res.Score).
		Float64("percentage", res.Percentage).
		Msg("Result queued for persistence")
	return nil
}
