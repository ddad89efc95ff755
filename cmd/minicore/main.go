package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/0x5844/minicore/config"
	"github.com/0x5844/minicore/internal/runner"
	"github.com/0x5844/minicore/internal/scene"
	"github.com/0x5844/minicore/physics"
)

// Build information (set by build script)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// options are the flags that are not part of the configuration file.
type options struct {
	ConfigFile  string
	Verbose     bool
	Quiet       bool
	ProfileCPU  string
	ProfileMem  string
	Batch       int
	BatchSteps  int
	Workers     int
	DumpConfig  bool
	ShowVersion bool
}

func parseFlags(args []string) (*options, *config.Config, error) {
	fs := flag.NewFlagSet("minicore", flag.ContinueOnError)
	opts := &options{}
	c := config.Default()
	sim := &c.Simulation

	fs.StringVar(&opts.ConfigFile, "config", "", "YAML configuration file")

	// Simulation parameters
	fs.Float64Var(&sim.GravityX, "gravity-x", sim.GravityX, "gravity X component")
	fs.Float64Var(&sim.GravityY, "gravity-y", sim.GravityY, "gravity Y component")
	fs.Float64Var(&sim.StepMS, "timestep", sim.StepMS, "physics time step in milliseconds")
	fs.Float64Var(&sim.Duration, "duration", sim.Duration, "simulation duration in seconds (0 = infinite)")
	fs.IntVar(&sim.FPS, "fps", sim.FPS, "maximum frames per second")
	fs.Int64Var(&sim.Seed, "seed", sim.Seed, "random seed for generated scenes (0 = time based)")

	// Solver settings
	fs.IntVar(&c.Solver.Iterations, "iterations", c.Solver.Iterations, "positional correction iterations")
	fs.IntVar(&c.World.GridCells, "grid-cells", c.World.GridCells, "approximate broad-phase cell count")
	fs.BoolVar(&c.World.BoundaryWalls, "walls", c.World.BoundaryWalls, "add walls around the world")

	// Output settings
	fs.BoolVar(&opts.Verbose, "verbose", false, "verbose output")
	fs.BoolVar(&opts.Quiet, "quiet", false, "minimal output")
	fs.Float64Var(&sim.StatsInterval, "stats-interval", sim.StatsInterval, "statistics reporting interval")
	fs.StringVar(&opts.ProfileCPU, "profile-cpu", "", "CPU profile output file")
	fs.StringVar(&opts.ProfileMem, "profile-mem", "", "memory profile output file")
	fs.BoolVar(&opts.DumpConfig, "dump-config", false, "print the effective configuration and exit")

	// Scene settings
	fs.StringVar(&sim.SceneFile, "scene", sim.SceneFile, "YAML scene file to load")
	fs.IntVar(&sim.Bodies, "bodies", sim.Bodies, "number of bodies for generated scenes")
	fs.StringVar(&sim.SceneType, "scene-type", sim.SceneType, "scene type (default, pyramid, rain, container, pendulum, mixed)")

	// Body defaults
	fs.Float64Var(&c.Defaults.LinearDamping, "damping", c.Defaults.LinearDamping, "linear damping factor")
	fs.Float64Var(&c.Defaults.Restitution, "restitution", c.Defaults.Restitution, "default restitution")
	fs.Float64Var(&sim.Friction, "friction", sim.Friction, "XY friction of generated bodies")

	// Batch mode
	fs.IntVar(&opts.Batch, "batch", 0, "run this many seeded worlds in parallel instead of real time")
	fs.IntVar(&opts.BatchSteps, "batch-steps", 600, "steps per batch world")
	fs.IntVar(&opts.Workers, "workers", runtime.NumCPU(), "number of concurrent batch worlds")

	fs.BoolVar(&opts.ShowVersion, "version", false, "show version information")

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "MiniCore - 2D rigid-body physics simulator\n\n")
		fmt.Fprintf(out, "Usage: minicore [OPTIONS]\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  minicore -bodies 500 -scene-type pyramid\n")
		fmt.Fprintf(out, "  minicore -config minicore.yaml -scene scene.yaml -duration 10\n")
		fmt.Fprintf(out, "  minicore -batch 8 -batch-steps 1000 -scene-type rain\n")
		fmt.Fprintf(out, "  minicore -profile-cpu cpu.prof -verbose\n")
		fmt.Fprintf(out, "\nVersion: %s\n", Version)
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if opts.ShowVersion {
		return opts, c, nil
	}

	if opts.ConfigFile != "" {
		fromFile, err := config.Load(opts.ConfigFile)
		if err != nil {
			return nil, nil, err
		}
		// flags given on the command line win over the file
		set := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
		flagged := *c
		*c = *fromFile
		overrideFlags(c, &flagged, set)
	}

	if err := validateOptions(opts); err != nil {
		return nil, nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	return opts, c, nil
}

// overrideFlags copies the values of explicitly set flags from flagged
// into c.
func overrideFlags(c, flagged *config.Config, set map[string]bool) {
	s, f := &c.Simulation, &flagged.Simulation
	overrides := map[string]func(){
		"gravity-x":      func() { s.GravityX = f.GravityX },
		"gravity-y":      func() { s.GravityY = f.GravityY },
		"timestep":       func() { s.StepMS = f.StepMS },
		"duration":       func() { s.Duration = f.Duration },
		"fps":            func() { s.FPS = f.FPS },
		"seed":           func() { s.Seed = f.Seed },
		"stats-interval": func() { s.StatsInterval = f.StatsInterval },
		"scene":          func() { s.SceneFile = f.SceneFile },
		"bodies":         func() { s.Bodies = f.Bodies },
		"scene-type":     func() { s.SceneType = f.SceneType },
		"friction":       func() { s.Friction = f.Friction },
		"iterations":     func() { c.Solver.Iterations = flagged.Solver.Iterations },
		"grid-cells":     func() { c.World.GridCells = flagged.World.GridCells },
		"walls":          func() { c.World.BoundaryWalls = flagged.World.BoundaryWalls },
		"damping":        func() { c.Defaults.LinearDamping = flagged.Defaults.LinearDamping },
		"restitution":    func() { c.Defaults.Restitution = flagged.Defaults.Restitution },
	}
	for name, apply := range overrides {
		if set[name] {
			apply()
		}
	}
}

func validateOptions(opts *options) error {
	if opts.Batch < 0 {
		return fmt.Errorf("batch cannot be negative")
	}
	if opts.Batch > 0 && opts.BatchSteps < 1 {
		return fmt.Errorf("batch steps must be at least 1")
	}
	if opts.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	return nil
}

func main() {
	opts, c, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if opts.ShowVersion {
		fmt.Printf("MiniCore version %s\n", Version)
		fmt.Printf("Built: %s\n", BuildTime)
		fmt.Printf("Go: %s\n", GoVersion)
		return
	}
	if opts.DumpConfig {
		data, err := c.Marshal()
		if err != nil {
			log.Fatalf("Could not render configuration: %v", err)
		}
		os.Stdout.Write(data)
		return
	}

	// Set up logging
	worldLog := log.New(io.Discard, "", 0)
	if opts.Quiet {
		log.SetOutput(io.Discard)
	} else if opts.Verbose {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		worldLog = log.Default()
	}

	if err := run(c, opts, worldLog); err != nil {
		log.Fatalf("Engine error: %v", err)
	}
}

// run executes the simulation. Profiles are flushed before it returns, so
// callers may exit on error.
func run(c *config.Config, opts *options, worldLog *log.Logger) error {
	// Set up profiling
	if opts.ProfileCPU != "" {
		f, err := os.Create(opts.ProfileCPU)
		if err != nil {
			return fmt.Errorf("create CPU profile: %w", err)
		}
		defer f.Close()

		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	settings, err := c.Settings()
	if err != nil {
		return err
	}
	settings.Logger = worldLog

	seed := c.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if opts.Batch > 0 {
		err = runBatch(ctx, c, settings, opts, seed)
	} else {
		err = runRealtime(ctx, c, settings, opts, seed)
	}
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	// Memory profiling
	if opts.ProfileMem != "" {
		f, err := os.Create(opts.ProfileMem)
		if err != nil {
			log.Printf("Could not create memory profile: %v", err)
		} else {
			defer f.Close()
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				log.Printf("Could not write memory profile: %v", err)
			}
		}
	}
	return nil
}

func stepDuration(c *config.Config) time.Duration {
	return time.Duration(c.Simulation.StepMS * float64(time.Millisecond))
}

func gravity(c *config.Config) mgl64.Vec2 {
	return mgl64.Vec2{c.Simulation.GravityX, c.Simulation.GravityY}
}

// populate loads the scene file or generates the configured scene. It
// returns the duration requested by a scene file, if any.
func populate(w *physics.World, c *config.Config, rng *rand.Rand) (time.Duration, error) {
	if path := c.Simulation.SceneFile; path != "" {
		s, err := scene.LoadFile(path)
		if err != nil {
			return 0, fmt.Errorf("load scene: %w", err)
		}
		b := scene.NewBuilder(w, s.Gravity.Vec())
		b.SetFriction(c.Simulation.Friction)
		if err := s.Build(b); err != nil {
			return 0, fmt.Errorf("setup scene: %w", err)
		}
		return time.Duration(s.Duration * float64(time.Second)), nil
	}
	b := scene.NewBuilder(w, gravity(c))
	b.SetFriction(c.Simulation.Friction)
	return 0, scene.Generate(b, c.Simulation.SceneType, c.Simulation.Bodies, rng)
}

func runRealtime(ctx context.Context, c *config.Config, settings physics.Settings, opts *options, seed int64) error {
	w := physics.NewWorld(settings)
	if err := w.SetDimensions(c.Dimensions()); err != nil {
		return err
	}
	sceneDuration, err := populate(w, c, rand.New(rand.NewSource(seed)))
	if err != nil {
		return err
	}
	duration := time.Duration(c.Simulation.Duration * float64(time.Second))
	if sceneDuration > 0 {
		duration = sceneDuration
	}

	if c.Simulation.SceneFile != "" {
		log.Printf("Loaded scene from %s", c.Simulation.SceneFile)
	} else {
		log.Printf("Generated %s scene with %d bodies (seed %d)", c.Simulation.SceneType, c.Simulation.Bodies, seed)
	}

	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	engine := runner.NewEngine(w, stepDuration(c), c.Simulation.FPS)
	if !opts.Quiet {
		interval := time.Duration(c.Simulation.StatsInterval * float64(time.Second))
		go runner.ReportStats(ctx, engine, interval, opts.Verbose, log.Default())
	}

	log.Printf("Starting MiniCore v%s", Version)
	log.Printf("Physics simulation started (FPS: %d, step: %.2f ms)", c.Simulation.FPS, c.Simulation.StepMS)
	if duration > 0 {
		log.Printf("Simulation duration: %s", duration)
	} else {
		log.Println("Press Ctrl+C to stop")
	}

	start := time.Now()
	err = engine.Run(ctx)

	// Final statistics
	fs, ws := engine.Stats()
	elapsed := time.Since(start).Seconds()
	log.Printf("Simulation completed:")
	log.Printf("  Final FPS: %.1f", fs.FPS)
	log.Printf("  Bodies: %d", ws.Bodies)
	log.Printf("  Steps: %d", ws.Steps)
	log.Printf("  Frames: %d", fs.Frames)
	if ws.Steps > 0 && elapsed > 0 {
		log.Printf("  Average steps/second: %.1f", float64(ws.Steps)/elapsed)
	}
	return err
}

func runBatch(ctx context.Context, c *config.Config, settings physics.Settings, opts *options, seed int64) error {
	jobs := make([]runner.Job, opts.Batch)
	for i := range jobs {
		jobs[i] = runner.Job{
			Name: fmt.Sprintf("%s-%d", c.Simulation.SceneType, i),
			Seed: seed + int64(i),
			Setup: func(w *physics.World, rng *rand.Rand) error {
				_, err := populate(w, c, rng)
				return err
			},
		}
	}
	b := &runner.Batch{
		Settings:   settings,
		Dimensions: c.Dimensions(),
		Step:       stepDuration(c),
		Steps:      opts.BatchSteps,
		Workers:    opts.Workers,
	}
	log.Printf("Running %d worlds for %d steps (%d workers)", opts.Batch, opts.BatchSteps, opts.Workers)
	results, err := b.Run(ctx, jobs)
	if err != nil {
		return err
	}
	for _, r := range results {
		log.Printf("  %s: bodies %d, awake %d, collisions %d, %.1f steps/s",
			r.Name, r.Stats.Bodies, r.Stats.Awake, r.Stats.Collisions,
			float64(r.Stats.Steps)/r.Elapsed.Seconds())
	}
	return nil
}
