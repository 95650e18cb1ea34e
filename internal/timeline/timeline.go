// Package timeline drives the relative 0-100 cursor that controls which map
// items are active, mapped linearly onto a 24 hour clock.
package timeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/geotime/internal/timeline"

const (
	// MaxCursor is the end of the timeline.
	MaxCursor = 100.0
	// StepPerTick is the cursor advance per tick at 1x speed.
	StepPerTick = 0.1
	// SkipStep is the jump applied by Rewind and FastForward.
	SkipStep = 5.0
	// DefaultTickInterval is the wall clock period of a tick.
	DefaultTickInterval = 100 * time.Millisecond
)

// Speeds are the accepted playback multipliers, in cycle order.
var Speeds = []int{1, 5, 20}

// ErrInvalidSpeed is returned for a multiplier outside Speeds.
var ErrInvalidSpeed = errors.New("invalid playback speed")

// PlayState is Paused or Playing.
type PlayState string

const (
	Paused  PlayState = "paused"
	Playing PlayState = "playing"
)

// State is a snapshot of the controller.
type State struct {
	Status PlayState `json:"status"`
	Cursor float64   `json:"cursor"`
	Speed  int       `json:"speed"`
	Clock  string    `json:"clock"`
}

// Controller is the timeline state machine.
type Controller struct {
	mu     sync.RWMutex
	status PlayState
	cursor float64
	speed  int

	// wake nudges Run when the play state changes.
	wake chan struct{}

	ticks metric.Int64Counter
	wraps metric.Int64Counter
}

// New creates a paused controller at cursor 0 and speed 1x.
// Uses the global OTel meter for metrics (no-op if not configured).
func New() (*Controller, error) {
	c := &Controller{status: Paused, speed: 1, wake: make(chan struct{}, 1)}

	m := otel.Meter(instrumentationName)

	var err error
	c.ticks, err = m.Int64Counter(
		"timeline.ticks",
		metric.WithDescription("Total timeline ticks applied while playing"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}

	c.wraps, err = m.Int64Counter(
		"timeline.wraps",
		metric.WithDescription("Total times the cursor looped back to 0"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating wraps counter: %w", err)
	}

	return c, nil
}

// Play moves Paused to Playing.
func (c *Controller) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setStatus(Playing)
}

// Pause moves Playing to Paused.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setStatus(Paused)
}

// Toggle flips between Playing and Paused and returns the new status.
func (c *Controller) Toggle() PlayState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == Playing {
		c.setStatus(Paused)
	} else {
		c.setStatus(Playing)
	}
	return c.status
}

// setStatus must be called with mu held.
func (c *Controller) setStatus(s PlayState) {
	if c.status == s {
		return
	}
	c.status = s
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// SetCursor sets the cursor, clamped to [0,100]. NaN is ignored.
func (c *Controller) SetCursor(t float64) {
	if math.IsNaN(t) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cursor = clamp(t)
}

// SetSpeed sets the playback multiplier.
func (c *Controller) SetSpeed(multiplier int) error {
	if !validSpeed(multiplier) {
		return fmt.Errorf("%w: %d", ErrInvalidSpeed, multiplier)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speed = multiplier
	return nil
}

// CycleSpeed advances 1x -> 5x -> 20x -> 1x and returns the new multiplier.
func (c *Controller) CycleSpeed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := Speeds[0]
	for i, s := range Speeds {
		if s == c.speed {
			next = Speeds[(i+1)%len(Speeds)]
			break
		}
	}
	c.speed = next
	return next
}

// Rewind moves the cursor back by SkipStep.
func (c *Controller) Rewind() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cursor = clamp(c.cursor - SkipStep)
}

// FastForward moves the cursor forward by SkipStep.
func (c *Controller) FastForward() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cursor = clamp(c.cursor + SkipStep)
}

// Tick advances the cursor by StepPerTick times the speed while Playing.
// A cursor past the end wraps to 0. It reports whether the cursor moved.
func (c *Controller) Tick() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != Playing {
		return false
	}
	next := c.cursor + StepPerTick*float64(c.speed)
	wrapped := next > MaxCursor
	if wrapped {
		next = 0
	}
	c.cursor = next

	ctx := context.Background()
	c.ticks.Add(ctx, 1)
	if wrapped {
		c.wraps.Add(ctx, 1)
	}
	return true
}

// Run drives playback until ctx is cancelled. A ticker runs only while the
// controller is Playing; pausing stops it and playing starts a fresh one.
// onTick, when set, is called with the new state after each applied tick.
func (c *Controller) Run(ctx context.Context, interval time.Duration, onTick func(State)) error {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	for {
		if c.Status() != Playing {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.wake:
			}
			continue
		}
		if err := c.play(ctx, interval, onTick); err != nil {
			return err
		}
	}
}

// play ticks until the controller pauses or ctx ends.
func (c *Controller) play(ctx context.Context, interval time.Duration, onTick func(State)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.wake:
			if c.Status() != Playing {
				return nil
			}
		case <-ticker.C:
			if !c.Tick() {
				return nil
			}
			if onTick != nil {
				onTick(c.State())
			}
		}
	}
}

// Cursor returns the current cursor
func (c *Controller) Cursor() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cursor
}

// Status returns Playing or Paused
func (c *Controller) Status() PlayState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return State{
		Status: c.status,
		Cursor: c.cursor,
		Speed:  c.speed,
		Clock:  FormatClock(c.cursor),
	}
}

// FormatClock renders a cursor as "HH:MM" on a 24 hour clock. Hours are taken
// mod 24, so the end of the timeline reads "00:00".
func FormatClock(cursor float64) string {
	if math.IsNaN(cursor) || math.IsInf(cursor, 0) {
		return "00:00"
	}
	totalMinutes := cursor / MaxCursor * 1440
	hours := int(math.Floor(totalMinutes/60)) % 24
	minutes := int(math.Floor(math.Mod(totalMinutes, 60)))
	if hours < 0 {
		hours += 24
	}
	if minutes < 0 {
		minutes += 60
	}
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

func clamp(t float64) float64 {
	return math.Max(0, math.Min(MaxCursor, t))
}

func validSpeed(multiplier int) bool {
	for _, s := range Speeds {
		if s == multiplier {
			return true
		}
	}
	return false
}
