package jobqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryTrackerIncrementsPerJob(t *testing.T) {
	tr := NewRetryTracker()
	require.Equal(t, 1, tr.Increment("job-1"))
	require.Equal(t, 2, tr.Increment("job-1"))
	require.Equal(t, 1, tr.Increment("job-2"))
	require.Equal(t, 2, tr.Attempts("job-1"))
}

func TestRetryTrackerClear(t *testing.T) {
	tr := NewRetryTracker()
	tr.Increment("job-1")
	tr.Clear("job-1")
	require.Equal(t, 0, tr.Attempts("job-1"))
}

func TestBackoffExponentialWithCeiling(t *testing.T) {
	require.Equal(t, 1*time.Second, Backoff(1))
	require.Equal(t, 2*time.Second, Backoff(2))
	require.Equal(t, 4*time.Second, Backoff(3))
	require.Equal(t, 60*time.Second, Backoff(10))
	require.Equal(t, 60*time.Second, Backoff(100))
}

func TestBackoffClampsNonPositiveAttempts(t *testing.T) {
	require.Equal(t, 1*time.Second, Backoff(0))
	require.Equal(t, 1*time.Second, Backoff(-5))
}
