package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaverCoalescesBursts(t *testing.T) {
	var saves atomic.Int32
	s := NewSaver(20*time.Millisecond, func(context.Context) error {
		saves.Add(1)
		return nil
	})
	defer s.Close()

	// A burst of staging commands produces a single write.
	s.Notify()
	s.Notify()
	s.Notify()

	require.Eventually(t, func() bool { return saves.Load() == 1 },
		time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), saves.Load(), "no further writes without a new Notify")
}

func TestSaverCloseFlushesPending(t *testing.T) {
	var saves atomic.Int32
	s := NewSaver(time.Hour, func(context.Context) error {
		saves.Add(1)
		return nil
	})

	s.Notify()
	require.NoError(t, s.Close())
	assert.Equal(t, int32(1), saves.Load(), "pending state is written on shutdown")

	// Closing twice and notifying after close are no-ops.
	require.NoError(t, s.Close())
	s.Notify()
	assert.Equal(t, int32(1), saves.Load())
}

func TestSaverCloseWithoutPending(t *testing.T) {
	var saves atomic.Int32
	s := NewSaver(time.Hour, func(context.Context) error {
		saves.Add(1)
		return nil
	})
	require.NoError(t, s.Close())
	assert.Zero(t, saves.Load())
}

func TestSaverRetriesAfterFailedSave(t *testing.T) {
	var calls atomic.Int32
	s := NewSaver(10*time.Millisecond, func(context.Context) error {
		if calls.Add(1) == 1 {
			return errors.New("disk full")
		}
		return nil
	})

	s.Notify()
	require.Eventually(t, func() bool { return calls.Load() == 1 },
		time.Second, time.Millisecond)

	// The failed write left the state dirty; Close retries it.
	require.NoError(t, s.Close())
	assert.Equal(t, int32(2), calls.Load())
}
