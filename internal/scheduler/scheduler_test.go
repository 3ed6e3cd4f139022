package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"fjacquet/spend-intel/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_AddAndEntries(t *testing.T) {
	s := New("UTC", logging.NewMockLogger())

	require.NoError(t, s.Add("train", "0 3 * * *", func(context.Context) error { return nil }))
	require.NoError(t, s.Add("recompute", "30 3 * * *", func(context.Context) error { return nil }))

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "train", entries[0].Name)
	assert.Equal(t, "0 3 * * *", entries[0].Spec)
	assert.Equal(t, "recompute", entries[1].Name)
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := New("UTC", logging.NewMockLogger())
	err := s.Add("train", "every day", func(context.Context) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "train")
	assert.Empty(t, s.Entries())
}

func TestScheduler_InvalidTimezoneFallsBackToUTC(t *testing.T) {
	logger := logging.NewMockLogger()
	s := New("Mars/Olympus_Mons", logger)
	assert.Equal(t, time.UTC, s.Location())
	assert.True(t, logger.HasEntry("WARN", "Invalid timezone, falling back to UTC"))
}

func TestScheduler_RunNow(t *testing.T) {
	s := New("", logging.NewMockLogger())
	var calls atomic.Int32
	require.NoError(t, s.Add("train", "@daily", func(context.Context) error {
		calls.Add(1)
		return errors.New("no data")
	}))

	err := s.RunNow(context.Background(), "train")
	assert.EqualError(t, err, "no data")
	assert.Equal(t, int32(1), calls.Load())

	assert.Error(t, s.RunNow(context.Background(), "missing"))
}

func TestScheduler_ExecuteLogsFailures(t *testing.T) {
	logger := logging.NewMockLogger()
	s := New("UTC", logger)
	require.NoError(t, s.Add("recompute", "@hourly", func(context.Context) error {
		return errors.New("source down")
	}))

	s.execute(s.jobs[0])
	assert.True(t, logger.HasEntry("ERROR", "Scheduled job failed"))
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	s := New("UTC", logging.NewMockLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestKVFields(t *testing.T) {
	fields := kvFields([]interface{}{"entry", 3, "next", "soon", "dangling"})
	require.Len(t, fields, 2)
	assert.Equal(t, logging.F("entry", 3), fields[0])
	assert.Equal(t, "next", fields[1].Key)
}
