package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestRegisterRejectsBadSpec(t *testing.T) {
	s := New(zerolog.Nop())
	err := s.Register("not a cron spec", &countingJob{name: "bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}

func TestRegisterAcceptsStandardSpec(t *testing.T) {
	s := New(zerolog.Nop())
	assert.NoError(t, s.Register("0 3 * * *", &countingJob{name: "nightly"}))
	assert.NoError(t, s.Register("@hourly", &countingJob{name: "hourly"}))
}

func TestRunNowExecutesJob(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "adhoc"}

	s.RunNow(job)
	assert.Equal(t, int64(1), job.runs.Load())
}

func TestRunNowSurvivesJobError(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "failing", err: errors.New("boom")}

	assert.NotPanics(t, func() { s.RunNow(job) })
	assert.Equal(t, int64(1), job.runs.Load())
}

func TestStartStop(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.Register("@daily", &countingJob{name: "noop"}))

	s.Start()
	s.Stop()
}
