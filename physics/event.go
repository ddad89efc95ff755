package physics

import (
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// EventType identifies an event kind. Built-in kinds are below
// FirstUserEventType; NewEventType hands out the rest.
type EventType uint32

const (
	CollisionEventType EventType = iota + 1
	SeparationEventType
	OutOfBoundariesEventType
	TimerEventType

	FirstUserEventType EventType = 1024
)

var lastEventType atomic.Uint32

func init() {
	lastEventType.Store(uint32(FirstUserEventType) - 1)
}

// NewEventType returns a fresh event type for application events.
func NewEventType() EventType {
	return EventType(lastEventType.Add(1))
}

type Event interface {
	EventType() EventType
}

// CollisionEvent is sent to both bodies when they start overlapping.
type CollisionEvent struct {
	Other *Body
	Point mgl64.Vec2
}

func (*CollisionEvent) EventType() EventType { return CollisionEventType }

// SeparationEvent is sent to both bodies when a tracked collision ends.
type SeparationEvent struct {
	Other *Body
}

func (*SeparationEvent) EventType() EventType { return SeparationEventType }

// Edge names a side of the world.
type Edge int

const (
	West Edge = iota
	East
	South
	North
	Bottom
	Top
)

func (e Edge) String() string {
	switch e {
	case West:
		return "West"
	case East:
		return "East"
	case South:
		return "South"
	case North:
		return "North"
	case Bottom:
		return "Bottom"
	case Top:
		return "Top"
	}
	return "Unknown"
}

type OutOfBoundariesEvent struct {
	Edge Edge
}

func (*OutOfBoundariesEvent) EventType() EventType { return OutOfBoundariesEventType }

// TimerEvent is delivered to timer subscribers once per timer interval.
type TimerEvent struct {
	Tick     uint64
	Interval time.Duration
}

func (*TimerEvent) EventType() EventType { return TimerEventType }

// Handlers are the per-body event hooks. Nil hooks fall back to the
// defaults: collisions are accepted, everything else is ignored.
type Handlers struct {
	// OnCollision decides whether contacts are generated for a new collision.
	OnCollision       func(b *Body, ev *CollisionEvent) bool
	OnSeparation      func(b *Body, ev *SeparationEvent)
	OnOutOfBoundaries func(b *Body, ev *OutOfBoundariesEvent)
	OnTimer           func(b *Body, ev *TimerEvent)
	// OnEvent receives every event type without a dedicated hook.
	OnEvent func(b *Body, ev Event) bool
}
