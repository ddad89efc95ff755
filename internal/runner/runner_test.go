package runner

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/0x5844/minicore/internal/scene"
	"github.com/0x5844/minicore/physics"
)

func newWorld(t *testing.T) *physics.World {
	t.Helper()
	w := physics.NewWorld(physics.DefaultSettings())
	b := scene.NewBuilder(w, mgl64.Vec2{0, -9.81})
	if err := scene.Generate(b, "default", 20, rand.New(rand.NewSource(3))); err != nil {
		t.Fatal(err)
	}
	return w
}

func TestRunStepsCountsFrames(t *testing.T) {
	e := NewEngine(newWorld(t), 16*time.Millisecond, 60)
	frames := 0
	e.OnFrame = func(*physics.World) { frames++ }
	if err := e.RunSteps(context.Background(), 25); err != nil {
		t.Fatal(err)
	}
	fs, ws := e.Stats()
	if fs.Frames != 25 || frames != 25 || ws.Steps != 25 {
		t.Errorf("frames=%d callbacks=%d steps=%d", fs.Frames, frames, ws.Steps)
	}
	if fs.MinFrame > fs.MaxFrame || fs.AvgFrame > fs.MaxFrame {
		t.Errorf("inconsistent frame times %+v", fs)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	e := NewEngine(newWorld(t), 16*time.Millisecond, 200)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := e.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run = %v, want deadline exceeded", err)
	}
	if fs, _ := e.Stats(); fs.Frames == 0 {
		t.Error("no frame ran")
	}
}

func TestRunRejectsConcurrentRuns(t *testing.T) {
	e := NewEngine(newWorld(t), time.Millisecond, 100)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	started := make(chan struct{})
	var once bool
	e.OnFrame = func(*physics.World) {
		if !once {
			once = true
			close(started)
		}
	}
	go func() { done <- e.Run(ctx) }()
	<-started

	if err := e.RunSteps(context.Background(), 1); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second run = %v, want ErrAlreadyRunning", err)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v", err)
	}
}

func TestFormatStats(t *testing.T) {
	e := NewEngine(newWorld(t), 16*time.Millisecond, 60)
	if err := e.RunSteps(context.Background(), 2); err != nil {
		t.Fatal(err)
	}
	if line := FormatStats(e, false); !strings.Contains(line, "Bodies: 21") {
		t.Errorf("line = %q", line)
	}
	if line := FormatStats(e, true); !strings.Contains(line, "Contacts:") {
		t.Errorf("verbose line = %q", line)
	}
}

func sceneJob(name string, seed int64) Job {
	return Job{
		Name: name,
		Seed: seed,
		Setup: func(w *physics.World, rng *rand.Rand) error {
			return scene.Generate(scene.NewBuilder(w, mgl64.Vec2{0, -9.81}), name, 15, rng)
		},
	}
}

func TestBatchRun(t *testing.T) {
	b := &Batch{
		Settings:   physics.DefaultSettings(),
		Dimensions: physics.DefaultDimensions(),
		Step:       16 * time.Millisecond,
		Steps:      20,
		Workers:    2,
	}
	var jobs []Job
	for i, name := range scene.Names() {
		jobs = append(jobs, sceneJob(name, int64(i)))
	}
	results, err := b.Run(context.Background(), jobs)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(jobs) {
		t.Fatalf("results = %d", len(results))
	}
	for i, r := range results {
		if r.Name != jobs[i].Name || r.Seed != jobs[i].Seed {
			t.Errorf("result %d is %s/%d", i, r.Name, r.Seed)
		}
		if r.Stats.Steps != 20 || r.Stats.Bodies == 0 {
			t.Errorf("%s: %+v", r.Name, r.Stats)
		}
	}
}

func TestBatchIsReproducible(t *testing.T) {
	b := &Batch{
		Settings:   physics.DefaultSettings(),
		Dimensions: physics.DefaultDimensions(),
		Step:       16 * time.Millisecond,
		Steps:      30,
	}
	jobs := []Job{sceneJob("rain", 42), sceneJob("rain", 42)}
	results, err := b.Run(context.Background(), jobs)
	if err != nil {
		t.Fatal(err)
	}
	a, c := results[0].Stats, results[1].Stats
	if a.Bodies != c.Bodies || a.Awake != c.Awake || a.Collisions != c.Collisions {
		t.Errorf("same seed diverged: %+v vs %+v", a, c)
	}
}

func TestBatchPropagatesErrors(t *testing.T) {
	b := &Batch{
		Settings:   physics.DefaultSettings(),
		Dimensions: physics.DefaultDimensions(),
		Step:       time.Millisecond,
		Steps:      5,
	}
	boom := errors.New("boom")
	jobs := []Job{
		sceneJob("default", 1),
		{Name: "broken", Setup: func(*physics.World, *rand.Rand) error { return boom }},
	}
	if _, err := b.Run(context.Background(), jobs); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}

	b.Dimensions = physics.Dimensions{}
	if _, err := b.Run(context.Background(), jobs[:1]); !errors.Is(err, physics.ErrInvalidDimensions) {
		t.Errorf("err = %v, want ErrInvalidDimensions", err)
	}
}
