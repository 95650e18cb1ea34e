package timeline

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()
	c, err := New()
	require.NoError(t, err)
	return c
}

func TestNew_Defaults(t *testing.T) {
	c := newTestController(t)
	s := c.State()

	assert.Equal(t, Paused, s.Status)
	assert.Equal(t, 0.0, s.Cursor)
	assert.Equal(t, 1, s.Speed)
	assert.Equal(t, "00:00", s.Clock)
}

func TestPlayPauseToggle(t *testing.T) {
	c := newTestController(t)

	c.Play()
	assert.Equal(t, Playing, c.Status())
	c.Pause()
	assert.Equal(t, Paused, c.Status())
	assert.Equal(t, Playing, c.Toggle())
	assert.Equal(t, Paused, c.Toggle())
}

func TestTick_OnlyWhilePlaying(t *testing.T) {
	c := newTestController(t)

	assert.False(t, c.Tick())
	assert.Equal(t, 0.0, c.Cursor())

	c.Play()
	assert.True(t, c.Tick())
	assert.InDelta(t, 0.1, c.Cursor(), 1e-9)
}

func TestTick_SpeedMultiplier(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.SetSpeed(20))
	c.Play()
	c.Tick()
	assert.InDelta(t, 2.0, c.Cursor(), 1e-9)
}

func TestTick_WrapsToZero(t *testing.T) {
	c := newTestController(t)
	c.SetCursor(99.95)
	c.Play()

	c.Tick()

	assert.Equal(t, 0.0, c.Cursor())
}

func TestTick_ExactlyHundredDoesNotWrap(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.SetSpeed(5))
	c.SetCursor(99.5)
	c.Play()

	c.Tick()
	assert.Equal(t, 100.0, c.Cursor())

	c.Tick()
	assert.Equal(t, 0.0, c.Cursor())
}

func TestSetCursor_Clamps(t *testing.T) {
	c := newTestController(t)

	c.SetCursor(150)
	assert.Equal(t, 100.0, c.Cursor())
	c.SetCursor(-3)
	assert.Equal(t, 0.0, c.Cursor())
	c.SetCursor(42)
	c.SetCursor(math.NaN())
	assert.Equal(t, 42.0, c.Cursor())
	c.SetCursor(math.Inf(1))
	assert.Equal(t, 100.0, c.Cursor())
}

func TestSetSpeed_Invalid(t *testing.T) {
	c := newTestController(t)

	err := c.SetSpeed(3)
	if !errors.Is(err, ErrInvalidSpeed) {
		t.Fatalf("expected ErrInvalidSpeed, got %v", err)
	}
	assert.Equal(t, 1, c.State().Speed)
}

func TestCycleSpeed(t *testing.T) {
	c := newTestController(t)

	assert.Equal(t, 5, c.CycleSpeed())
	assert.Equal(t, 20, c.CycleSpeed())
	assert.Equal(t, 1, c.CycleSpeed())
}

func TestRewindFastForward(t *testing.T) {
	c := newTestController(t)

	c.SetCursor(3)
	c.Rewind()
	assert.Equal(t, 0.0, c.Cursor())

	c.SetCursor(97)
	c.FastForward()
	assert.Equal(t, 100.0, c.Cursor())

	c.SetCursor(50)
	c.FastForward()
	assert.Equal(t, 55.0, c.Cursor())
	c.Rewind()
	assert.Equal(t, 50.0, c.Cursor())
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		cursor float64
		want   string
	}{
		{0, "00:00"},
		{25, "06:00"},
		{50, "12:00"},
		{50.5, "12:07"},
		{99.99, "23:59"},
		{100, "00:00"},
		{math.NaN(), "00:00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatClock(tt.cursor), "cursor %v", tt.cursor)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	c := newTestController(t)
	c.Play()

	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var states []State
	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx, time.Millisecond, func(s State) {
			mu.Lock()
			states = append(states, s)
			mu.Unlock()
		})
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(states) >= 3
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(states); i++ {
		assert.Greater(t, states[i].Cursor, states[i-1].Cursor)
	}
}

func TestRun_PausedDoesNotNotify(t *testing.T) {
	c := newTestController(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	_ = c.Run(ctx, time.Millisecond, func(State) { called = true })

	assert.False(t, called)
	assert.Equal(t, 0.0, c.Cursor())
}

func TestRun_PauseStopsAndPlayRestartsTicker(t *testing.T) {
	c := newTestController(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	count := 0
	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx, time.Millisecond, func(State) {
			mu.Lock()
			count++
			mu.Unlock()
		})
	}()
	seen := func() int {
		mu.Lock()
		defer mu.Unlock()
		return count
	}

	// starts paused: nothing ticks until Play
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 0, seen())

	c.Play()
	require.Eventually(t, func() bool { return seen() >= 2 }, time.Second, time.Millisecond)

	c.Pause()
	// let any tick already in flight land
	time.Sleep(5 * time.Millisecond)
	paused := seen()
	cursor := c.Cursor()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, paused, seen())
	assert.Equal(t, cursor, c.Cursor())

	c.Toggle()
	require.Eventually(t, func() bool { return seen() > paused }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestPlay_RepeatedCallsDoNotBlock(t *testing.T) {
	c := newTestController(t)
	for i := 0; i < 5; i++ {
		c.Play()
		c.Pause()
	}
	c.Play()
	c.Play()
	assert.Equal(t, Playing, c.Status())
}
