package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/findash/backend/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	failures int32
	calls    atomic.Int32
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	n := j.calls.Add(1)
	if n <= j.failures {
		return errors.New("upstream unavailable")
	}
	return nil
}

func newJob(name string, failures int32) *fakeJob {
	return &fakeJob{name: name, schedule: "@hourly", failures: failures}
}

func newTestScheduler() *Scheduler {
	return New(logger.NewNop(), WithRetry(2, time.Millisecond), WithJobTimeout(time.Second))
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(newJob("b", 0)))
	require.NoError(t, s.AddJob(newJob("a", 0)))

	err := s.AddJob(newJob("a", 0))
	assert.ErrorContains(t, err, "already exists")

	bad := newJob("bad", 0)
	bad.schedule = "every now and then"
	assert.ErrorContains(t, s.AddJob(bad), "failed to schedule job bad")

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(newJob("a", 0)))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("a"))

	_, err := s.GetJobHistory("a")
	assert.Error(t, err)
}

func TestRunNow(t *testing.T) {
	tests := []struct {
		name         string
		failures     int32
		wantSuccess  bool
		wantAttempts int
	}{
		{"first try", 0, true, 1},
		{"succeeds on retry", 2, true, 3},
		{"exhausts retries", 5, false, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScheduler()
			job := newJob("refresh", tt.failures)
			require.NoError(t, s.AddJob(job))

			result, err := s.RunNow(context.Background(), "refresh")
			require.NoError(t, err)

			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.wantAttempts, result.Attempts)
			assert.Equal(t, int32(tt.wantAttempts), job.calls.Load())
			if tt.wantSuccess {
				assert.Empty(t, result.Error)
			} else {
				assert.Equal(t, "upstream unavailable", result.Error)
			}

			history, err := s.GetJobHistory("refresh")
			require.NoError(t, err)
			require.Len(t, history.Results, 1)
			assert.Equal(t, result, history.Results[0])
		})
	}
}

func TestRunNow_UnknownJob(t *testing.T) {
	s := newTestScheduler()

	_, err := s.RunNow(context.Background(), "missing")
	assert.ErrorContains(t, err, "not found")
	assert.Error(t, s.RunJob("missing"))
}

func TestRunNow_StopsRetryingWhenCancelled(t *testing.T) {
	s := New(logger.NewNop(), WithRetry(3, time.Hour))
	job := newJob("refresh", 10)
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	result, err := s.RunNow(ctx, "refresh")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Attempts)
	assert.Contains(t, result.Error, context.DeadlineExceeded.Error())
}

func TestRunJob_Background(t *testing.T) {
	s := newTestScheduler()
	job := newJob("refresh", 0)
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("refresh"))

	assert.Eventually(t, func() bool {
		h, err := s.GetJobHistory("refresh")
		return err == nil && len(h.Results) == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestGetJobStats(t *testing.T) {
	s := New(logger.NewNop(), WithRetry(0, time.Millisecond))
	job := newJob("refresh", 1)
	require.NoError(t, s.AddJob(job))

	ctx := context.Background()
	_, err := s.RunNow(ctx, "refresh")
	require.NoError(t, err)
	_, err = s.RunNow(ctx, "refresh")
	require.NoError(t, err)

	stats := s.GetJobStats()["refresh"]
	assert.Equal(t, "@hourly", stats.Schedule)
	assert.Equal(t, 2, stats.TotalRuns)
	assert.Equal(t, 1, stats.SuccessCount)
	assert.Equal(t, 1, stats.FailureCount)
	assert.InDelta(t, 0.5, stats.SuccessRate, 1e-9)
	require.NotNil(t, stats.LastRun)
	assert.NotNil(t, stats.LastSuccess)
	assert.Nil(t, stats.LastFailure)
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyLimit+20; i++ {
		h.AddResult(JobResult{JobName: "x", Attempts: i, Success: i%2 == 0})
	}

	assert.Len(t, h.Results, historyLimit)
	assert.Equal(t, 20, h.Results[0].Attempts)
	assert.Len(t, h.GetLatestResults(5), 5)
	assert.Empty(t, h.GetLatestResults(0))
	assert.Len(t, h.GetFailedResults(), historyLimit/2)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)

	snapshot := h.clone()
	snapshot.Results[0].JobName = "changed"
	assert.Equal(t, "x", h.Results[0].JobName)
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(newJob("a", 0)))

	s.Start()
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
