// Package physics is a fixed-timestep 2.5D rigid-body engine. Bodies move in
// the XY plane, the Z axis is only clamped against the world extents.
//
// A step runs ApplyForces, Integrate, DetectCollisions, GenerateImpulses,
// a bounded number of positional correction passes and finally the lazy
// removals. The engine is single-threaded; a World must be driven by one
// goroutine at a time. Only Stats may be read concurrently.
package physics

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
)

var ErrInvalidDimensions = errors.New("physics: invalid world dimensions")

const (
	DefaultIterations            = 5
	DefaultAngularImpulseScaling = 0.5
	DefaultFrictionThreshold     = 0.001
	DefaultGridCells             = 1024
)

// Defaults holds the initial physical properties of new bodies.
type Defaults struct {
	Mass                  float64
	Restitution           float64
	LinearDamping         float64
	AngularDamping        float64
	MaxSpeed              float64
	SleepLinearThreshold  float64
	SleepAngularThreshold float64
}

func DefaultBodyDefaults() Defaults {
	return Defaults{
		Mass:                  1.0,
		Restitution:           0.5,
		LinearDamping:         0.999,
		AngularDamping:        0.99,
		MaxSpeed:              1000,
		SleepLinearThreshold:  0.01,
		SleepAngularThreshold: 0.01,
	}
}

// Settings tunes the solver.
type Settings struct {
	// Iterations is the number of positional correction passes per step.
	Iterations int
	// AngularImpulseScaling calibrates the rotational part of collision impulses.
	AngularImpulseScaling float64
	// FrictionThreshold is the XY friction above which AddObject attaches
	// a friction generator to the body.
	FrictionThreshold float64
	// FrictionGravity is the gravity magnitude used by implicit friction.
	FrictionGravity float64
	Defaults        Defaults
	Logger          *log.Logger
}

func DefaultSettings() Settings {
	return Settings{
		Iterations:            DefaultIterations,
		AngularImpulseScaling: DefaultAngularImpulseScaling,
		FrictionThreshold:     DefaultFrictionThreshold,
		FrictionGravity:       9.81,
		Defaults:              DefaultBodyDefaults(),
	}
}

func (s Settings) withFallbacks() Settings {
	if s.Iterations < 0 {
		s.Iterations = 0
	}
	if s.Logger == nil {
		s.Logger = log.New(io.Discard, "", 0)
	}
	if s.Defaults == (Defaults{}) {
		s.Defaults = DefaultBodyDefaults()
	}
	return s
}

// Dimensions are the world extents. Bodies leaving the X/Y extents receive
// out-of-boundaries events, bodies leaving the Z extent are clamped back.
type Dimensions struct {
	MinX, MaxX    float64
	MinY, MaxY    float64
	MinZ, MaxZ    float64
	MetersPerUnit float64
	BoundaryWalls bool
	// GridCells is the approximate number of broad-phase cells.
	GridCells int
}

func DefaultDimensions() Dimensions {
	return Dimensions{
		MinX: -100, MaxX: 100,
		MinY: -100, MaxY: 100,
		MinZ: -10, MaxZ: 10,
		MetersPerUnit: 1.0,
		GridCells:     DefaultGridCells,
	}
}

func (d Dimensions) Validate() error {
	switch {
	case !(d.MaxX > d.MinX):
		return fmt.Errorf("%w: max x %g must exceed min x %g", ErrInvalidDimensions, d.MaxX, d.MinX)
	case !(d.MaxY > d.MinY):
		return fmt.Errorf("%w: max y %g must exceed min y %g", ErrInvalidDimensions, d.MaxY, d.MinY)
	case d.MaxZ < d.MinZ:
		return fmt.Errorf("%w: max z %g is below min z %g", ErrInvalidDimensions, d.MaxZ, d.MinZ)
	case !(d.MetersPerUnit > 0) || math.IsInf(d.MetersPerUnit, 0):
		return fmt.Errorf("%w: meters per unit must be positive, got %g", ErrInvalidDimensions, d.MetersPerUnit)
	case d.GridCells < 0:
		return fmt.Errorf("%w: negative grid cell count %d", ErrInvalidDimensions, d.GridCells)
	}
	return nil
}

func (d Dimensions) Width() float64  { return d.MaxX - d.MinX }
func (d Dimensions) Height() float64 { return d.MaxY - d.MinY }

// leafSize derives the maximum cell size from the requested cell count.
func (d Dimensions) leafSize() (float64, float64) {
	cells := d.GridCells
	if cells <= 0 {
		cells = DefaultGridCells
	}
	perAxis := math.Max(1, math.Floor(math.Sqrt(float64(cells))))
	return d.Width() / perAxis, d.Height() / perAxis
}
