package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/zulumai/exam-portal/internal/config"
	"github.com/zulumai/exam-portal/internal/model"
)

func testRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func sampleResult() *model.ExamResult {
	return &model.ExamResult{
		SessionID:  uuid.New(),
		UserID:     uuid.New(),
		UserEmail:  "jdoe@zulumai.com",
		ExamType:   model.ExamTypeStandard,
		Score:      42,
		Percentage: 60.0,
		Passed:     true,
		Answers:    map[int]int{0: 1, 3: 2},
		RecordedAt: time.Now().UTC(),
	}
}

func TestRecordEnqueuesResult(t *testing.T) {
	mr, rdb := testRedis(t)
	recorder := NewResultRecorder(rdb, zerolog.Nop())

	res := sampleResult()
	require.NoError(t, recorder.Record(context.Background(), res))

	items, err := mr.List(config.WorkerKey.PersistResultsQueue)
	require.NoError(t, err)
	require.Len(t, items, 1)

	var queued model.ExamResult
	require.NoError(t, json.Unmarshal([]byte(items[0]), &queued))
	require.Equal(t, res.SessionID, queued.SessionID)
	require.Equal(t, res.UserEmail, queued.UserEmail)
	require.Equal(t, res.Score, queued.Score)
	require.Equal(t, res.Answers, queued.Answers)
}

func TestRecordPreservesQueueOrder(t *testing.T) {
	mr, rdb := testRedis(t)
	recorder := NewResultRecorder(rdb, zerolog.Nop())

	first := sampleResult()
	second := sampleResult()
	require.NoError(t, recorder.Record(context.Background(), first))
	require.NoError(t, recorder.Record(context.Background(), second))

	items, err := mr.List(config.WorkerKey.PersistResultsQueue)
	require.NoError(t, err)
	require.Len(t, items, 2)

	var queued model.ExamResult
	require.NoError(t, json.Unmarshal([]byte(items[0]), &queued))
	require.Equal(t, first.SessionID, queued.SessionID)
}

func TestRecordFailsWhenRedisDown(t *testing.T) {
	mr, rdb := testRedis(t)
	recorder := NewResultRecorder(rdb, zerolog.Nop())

	mr.Close()

	err := recorder.Record(context.Background(), sampleResult())
	require.ErrorIs(t, err, ErrRecordingFailed)
}
