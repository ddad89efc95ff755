// Package runner drives physics worlds: a fixed-rate real-time loop for one
// world and a parallel batch runner for independent worlds.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/0x5844/minicore/physics"
)

var ErrAlreadyRunning = errors.New("engine already running")

const historySize = 100

// FrameStats describes the real-time loop.
type FrameStats struct {
	FPS      float64
	Frames   int64
	AvgFrame time.Duration
	MinFrame time.Duration
	MaxFrame time.Duration
	// Recent is the mean frame time over the last frames.
	Recent time.Duration
}

// Engine steps a world at a fixed rate. Each tick advances the world by one
// fixed step.
type Engine struct {
	world     *physics.World
	step      time.Duration
	targetFPS int
	running   atomic.Bool

	mu            sync.Mutex
	stats         FrameStats
	lastFrameTime time.Time
	frameTimeSum  time.Duration
	history       []time.Duration

	// OnFrame, when set, runs after every step on the loop goroutine.
	OnFrame func(w *physics.World)
}

func NewEngine(w *physics.World, step time.Duration, targetFPS int) *Engine {
	return &Engine{
		world:     w,
		step:      step,
		targetFPS: max(1, targetFPS),
		history:   make([]time.Duration, 0, historySize),
	}
}

func (e *Engine) World() *physics.World { return e.world }

// Run steps the world until ctx is done and returns ctx.Err().
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer e.running.Store(false)

	ticker := time.NewTicker(time.Second / time.Duration(e.targetFPS))
	defer ticker.Stop()

	e.mu.Lock()
	e.lastFrameTime = time.Now()
	e.mu.Unlock()

	for {
		select {
		case <-ticker.C:
			start := time.Now()
			e.world.StepTime(e.step)
			if e.OnFrame != nil {
				e.OnFrame(e.world)
			}
			e.updateStats(start)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunSteps advances the world by n steps as fast as possible.
func (e *Engine) RunSteps(ctx context.Context, n int) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer e.running.Store(false)

	e.mu.Lock()
	e.lastFrameTime = time.Now()
	e.mu.Unlock()
	for range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		e.world.StepTime(e.step)
		if e.OnFrame != nil {
			e.OnFrame(e.world)
		}
		e.updateStats(start)
	}
	return nil
}

func (e *Engine) updateStats(frameStart time.Time) {
	now := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	frameTime := now.Sub(frameStart)
	if interval := now.Sub(e.lastFrameTime); interval > 0 {
		e.stats.FPS = float64(time.Second) / float64(interval)
	}
	e.lastFrameTime = now
	e.stats.Frames++

	e.frameTimeSum += frameTime
	e.stats.AvgFrame = e.frameTimeSum / time.Duration(e.stats.Frames)
	if e.stats.MinFrame == 0 || frameTime < e.stats.MinFrame {
		e.stats.MinFrame = frameTime
	}
	if frameTime > e.stats.MaxFrame {
		e.stats.MaxFrame = frameTime
	}

	if len(e.history) == historySize {
		copy(e.history, e.history[1:])
		e.history = e.history[:historySize-1]
	}
	e.history = append(e.history, frameTime)
	var sum time.Duration
	for _, d := range e.history {
		sum += d
	}
	e.stats.Recent = sum / time.Duration(len(e.history))
}

// Stats returns the frame statistics and the world counters. It is safe to
// call while Run is active.
func (e *Engine) Stats() (FrameStats, physics.Stats) {
	e.mu.Lock()
	fs := e.stats
	e.mu.Unlock()
	return fs, e.world.Stats()
}

// ReportStats logs the engine statistics every interval until ctx is done.
func ReportStats(ctx context.Context, e *Engine, interval time.Duration, verbose bool, logger *log.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.Print(FormatStats(e, verbose))
		case <-ctx.Done():
			return
		}
	}
}

// FormatStats renders one statistics line.
func FormatStats(e *Engine, verbose bool) string {
	fs, ws := e.Stats()
	if verbose {
		return fmt.Sprintf("FPS: %.1f | Bodies: %d (Awake: %d) | Collisions: %d | "+
			"Frame: %.2f/%.2f/%.2f ms | Contacts: %d/%d",
			fs.FPS, ws.Bodies, ws.Awake, ws.Collisions,
			ms(fs.AvgFrame), ms(fs.MinFrame), ms(fs.MaxFrame),
			ws.ContactsInUse, ws.ContactCapacity)
	}
	return fmt.Sprintf("FPS: %.1f | Bodies: %d | Awake: %d | Collisions: %d",
		fs.FPS, ws.Bodies, ws.Awake, ws.Collisions)
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
