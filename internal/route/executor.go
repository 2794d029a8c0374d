// Package route drives the camera through a preset sequence while a clip is recorded.
package route

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/op/go-logging"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/marcosistoocommon/ReoCamara/pkg/models"
)

var log = logging.MustGetLogger("route")

// DefaultSettle is the time allowed for the camera to reach a preset
const DefaultSettle = 5 * time.Second

var (
	ErrNoToken    = errors.New("no camera token")
	ErrEmptyRoute = errors.New("route has no presets")
	ErrBusy       = errors.New("camera is busy with another route")
)

// TokenSource hands out a valid camera token
type TokenSource interface {
	Token(ctx context.Context) (models.Token, error)
}

// MotionDriver moves the camera to a stored preset without waiting for arrival
type MotionDriver interface {
	Move(ctx context.Context, token string, presetID, speed int) error
}

// ClipRecorder records a clip of the given duration, blocking until done
type ClipRecorder interface {
	Record(ctx context.Context, outputPath string, duration time.Duration) error
}

// Config tunes the executor
type Config struct {
	Settle        time.Duration
	Speed         int
	MaxConcurrent int64
}

// MoveOutcome is the result of a single move command
type MoveOutcome struct {
	Preset int
	At     time.Time
	Err    error
}

// Result describes what happened during one route execution
type Result struct {
	Route           string
	CaptureDuration time.Duration
	Moves           []MoveOutcome
	CaptureErr      error
	StartedAt       time.Time
	FinishedAt      time.Time
}

// FailedMoves returns the moves the camera did not accept
func (r *Result) FailedMoves() []MoveOutcome {
	var failed []MoveOutcome
	for _, m := range r.Moves {
		if m.Err != nil {
			failed = append(failed, m)
		}
	}
	return failed
}

// Executor runs routes
type Executor struct {
	tokens   TokenSource
	driver   MotionDriver
	recorder ClipRecorder
	settle   time.Duration
	speed    int
	slots    *semaphore.Weighted
}

// NewExecutor creates a route executor
func NewExecutor(tokens TokenSource, driver MotionDriver, recorder ClipRecorder, cfg Config) *Executor {
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
	if cfg.Speed <= 0 {
		cfg.Speed = 1
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}

	return &Executor{
		tokens:   tokens,
		driver:   driver,
		recorder: recorder,
		settle:   cfg.Settle,
		speed:    cfg.Speed,
		slots:    semaphore.NewWeighted(cfg.MaxConcurrent),
	}
}

// Settle returns the per-move settle duration
func (e *Executor) Settle() time.Duration {
	return e.settle
}

// Execute records route.Duration(settle) of video into outputPath while moving the
// camera through the route's presets, one per settle period. Without a token
// nothing is started. Move and capture failures are reported in the Result;
// whether the clip is usable is decided by the caller.
func (e *Executor) Execute(ctx context.Context, route models.Route, outputPath string) (*Result, error) {
	if len(route.Presets) == 0 {
		return nil, ErrEmptyRoute
	}

	if !e.slots.TryAcquire(1) {
		return nil, ErrBusy
	}
	defer e.slots.Release(1)

	tok, err := e.tokens.Token(ctx)
	if err != nil {
		log.Warningf("Route %s aborted: %v", route.Name, err)
		return nil, fmt.Errorf("%w: %w", ErrNoToken, err)
	}

	result := &Result{
		Route:           route.Name,
		CaptureDuration: route.Duration(e.settle),
		Moves:           make([]MoveOutcome, 0, len(route.Presets)),
		StartedAt:       time.Now(),
	}

	log.Infof("🚀 Running route %s %v (%v)", route.Name, route.Presets, result.CaptureDuration)

	// Capture in parallel with the moves
	var g errgroup.Group
	started := make(chan struct{})
	g.Go(func() error {
		close(started)
		return e.recorder.Record(ctx, outputPath, result.CaptureDuration)
	})
	<-started

	for i, preset := range route.Presets {
		outcome := MoveOutcome{Preset: preset, At: time.Now()}
		outcome.Err = e.driver.Move(ctx, tok.Value, preset, e.speed)
		if outcome.Err != nil {
			log.Warningf("Route %s: move %d/%d to preset %d failed: %v", route.Name, i+1, len(route.Presets), preset, outcome.Err)
		} else {
			log.Debugf("Route %s: move %d/%d to preset %d", route.Name, i+1, len(route.Presets), preset)
		}
		result.Moves = append(result.Moves, outcome)

		if !wait(ctx, e.settle) {
			log.Warningf("Route %s interrupted after %d moves", route.Name, i+1)
			break
		}
	}

	result.CaptureErr = g.Wait()
	result.FinishedAt = time.Now()

	log.Infof("✅ Route %s finished in %v (%d/%d moves ok)", route.Name,
		result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond),
		len(result.Moves)-len(result.FailedMoves()), len(route.Presets))
	return result, nil
}

// wait blocks for d and reports false if ctx ended first
func wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
