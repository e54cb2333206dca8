package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verifylens/shared/logging"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string { return "Counting Job" }

func (j *countingJob) RunOnce(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestRunOnce(t *testing.T) {
	job := &countingJob{}
	s := New("@every 1h", job, logging.Discard())

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, int32(1), job.runs.Load())
}

func TestRunOnceWrapsJobError(t *testing.T) {
	cause := errors.New("report sink closed")
	s := New("@every 1h", &countingJob{err: cause}, logging.Discard())

	err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "Counting Job run failed")
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := New("not a schedule", &countingJob{}, logging.Discard())

	err := s.Start(context.Background())
	assert.Error(t, err)
}

func TestStartRunsUntilCancelled(t *testing.T) {
	job := &countingJob{}
	s := New("* * * * * *", job, logging.Discard()) // every second

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()

	err := s.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, job.runs.Load(), int32(1))
}
