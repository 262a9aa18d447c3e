/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package card drives a single playing card through drag, swipe and flip
// gestures. It owns no content: it mutates the styles of a bound Surface and
// reports when the card has been dismissed.
package card

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"
)

const (
	SwipeThreshold = 120.0
	TapTolerance   = 4.0

	dragRotation   = 0.1
	throwRotation  = 0.5
	throwDistance  = 1000.0
	fadeDistance   = 300.0
	minDragOpacity = 0.3

	DismissDuration  = 400 * time.Millisecond
	SnapBackDuration = 300 * time.Millisecond
	ThrowDuration    = 500 * time.Millisecond
	EnterDuration    = 400 * time.Millisecond

	throwEasing = "cubic-bezier(0.6, 0.04, 0.98, 0.34)"
)

type State int

const (
	Idle State = iota
	Dragging
	Dismissing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Dismissing:
		return "dismissing"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

type Point struct {
	X, Y float64
}

func (p Point) distance() float64 {
	return math.Hypot(p.X, p.Y)
}

// Throw is a preset direction for a programmatic swipe.
type Throw struct {
	X, Y     float64
	Rotation float64
}

var Throws = []Throw{
	{X: -800, Y: -200, Rotation: -45},
	{X: 800, Y: -200, Rotation: 45},
	{X: -600, Y: 300, Rotation: -30},
	{X: 600, Y: 300, Rotation: 30},
}

type Option func(*Engine)

// WithTapTolerance sets how far a press may wander and still count as a tap.
func WithTapTolerance(px float64) Option {
	return func(e *Engine) {
		e.tapTolerance = px
	}
}

// WithRand replaces the source used to pick a throw; intn must return a
// value in [0, n).
func WithRand(intn func(n int) int) Option {
	return func(e *Engine) {
		e.intn = intn
	}
}

// Engine is the gesture state machine for one card. It is safe for
// concurrent use, but gestures on the same card are expected to arrive in
// order; the callback passed to Bind is always invoked without the engine's
// lock held.
type Engine struct {
	mu sync.Mutex

	clock        Clock
	tapTolerance float64
	intn         func(n int) int

	surface     Surface
	onDismissed func()

	state   State
	origin  Point
	offset  Point
	flipped bool

	// pending is closed when the in-flight programmatic swipe completes.
	pending chan struct{}

	gen    uint64
	nextID int
	timers map[int]Timer
}

func New(clock Clock, opts ...Option) *Engine {
	if clock == nil {
		clock = SystemClock
	}

	e := &Engine{
		clock:        clock,
		tapTolerance: TapTolerance,
		intn:         rand.IntN,
		timers:       make(map[int]Timer),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Bind attaches the engine to surface. Binding again, to the same or a new
// surface, abandons any animation in flight and starts from a neutral state.
func (e *Engine) Bind(surface Surface, onDismissed func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.detachLocked()

	e.surface = surface
	e.onDismissed = onDismissed
}

// Destroy detaches the engine. It may be called any number of times.
func (e *Engine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.detachLocked()
}

func (e *Engine) detachLocked() {
	e.gen++

	for id, t := range e.timers {
		t.Stop()
		delete(e.timers, id)
	}

	if e.pending != nil {
		close(e.pending)
		e.pending = nil
	}

	e.surface = nil
	e.onDismissed = nil
	e.state = Idle
	e.origin = Point{}
	e.offset = Point{}
	e.flipped = false
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

func (e *Engine) Offset() Point {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.offset
}

func (e *Engine) Flipped() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.flipped
}

func (e *Engine) Bound() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.surface != nil
}

// afterLocked runs f under the engine lock once d has elapsed, unless the engine
// has been rebound or destroyed in the meantime. f returns a callback to
// run after the lock is released, or nil.
func (e *Engine) afterLocked(d time.Duration, f func() func()) {
	gen := e.gen
	id := e.nextID
	e.nextID++

	e.timers[id] = e.clock.AfterFunc(d, func() {
		e.mu.Lock()
		if e.gen != gen {
			e.mu.Unlock()

			return
		}
		delete(e.timers, id)
		cb := f()
		e.mu.Unlock()

		if cb != nil {
			cb()
		}
	})
}

// PointerDown starts a drag and reports whether it did. Presses on an
// unbound or moving card are ignored.
func (e *Engine) PointerDown(x, y float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.surface == nil || e.state != Idle {
		return false
	}

	e.state = Dragging
	e.origin = Point{X: x, Y: y}
	e.offset = Point{}

	e.surface.AddClass("dragging")

	return true
}

func (e *Engine) PointerMove(x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.surface == nil || e.state != Dragging {
		return
	}

	e.offset = Point{X: x - e.origin.X, Y: y - e.origin.Y}

	e.surface.SetStyle("transform", transform(e.offset.X, e.offset.Y, e.offset.X*dragRotation))
	e.surface.SetStyle("opacity", number(math.Max(minDragOpacity, 1-e.offset.distance()/fadeDistance)))
}

// PointerUp ends a press. Far enough and the card is thrown away; a press
// that barely moved is a tap and flips the card; anything in between snaps
// back.
func (e *Engine) PointerUp() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.surface == nil || e.state != Dragging {
		return
	}

	e.state = Idle
	e.surface.RemoveClass("dragging")

	distance := e.offset.distance()

	switch {
	case distance >= SwipeThreshold:
		e.dismissLocked()
	case distance <= e.tapTolerance:
		if distance > 0 {
			e.surface.SetStyle("transform", "")
			e.surface.SetStyle("opacity", "")
		}
		e.offset = Point{}
		e.flipLocked()
	default:
		e.snapBackLocked()
	}
}

// PointerCancel aborts a press without treating it as a tap.
func (e *Engine) PointerCancel() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.surface == nil || e.state != Dragging {
		return
	}

	e.state = Idle
	e.surface.RemoveClass("dragging")

	if e.offset.distance() >= SwipeThreshold {
		e.dismissLocked()

		return
	}

	e.snapBackLocked()
}

// Flip toggles the card face, as a tap would. It does nothing mid-gesture.
func (e *Engine) Flip() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.surface == nil || e.state != Idle || e.offset != (Point{}) {
		return
	}

	e.flipLocked()
}

func (e *Engine) flipLocked() {
	inner := e.surface.Inner()
	if inner == nil {
		return
	}

	e.flipped = !e.flipped

	if e.flipped {
		inner.SetStyle("transform", "rotateY(180deg)")
	} else {
		inner.SetStyle("transform", "rotateY(0deg)")
	}
}

func (e *Engine) snapBackLocked() {
	e.surface.SetStyle("transition", "transform 0.3s ease-out, opacity 0.3s ease-out")
	e.surface.SetStyle("transform", "translate(0px, 0px) rotate(0deg)")
	e.surface.SetStyle("opacity", "1")

	e.offset = Point{}

	e.afterLocked(SnapBackDuration, func() func() {
		if e.state == Idle {
			e.surface.SetStyle("transition", "")
		}

		return nil
	})
}

func (e *Engine) dismissLocked() {
	e.state = Dismissing

	angle := math.Atan2(e.offset.Y, e.offset.X)

	e.surface.SetStyle("transition", fmt.Sprintf("transform %s %s, opacity %s ease-out", seconds(DismissDuration), throwEasing, seconds(DismissDuration)))
	e.surface.SetStyle("transform", transform(math.Cos(angle)*throwDistance, math.Sin(angle)*throwDistance, e.offset.X*throwRotation))
	e.surface.SetStyle("opacity", "0")

	e.afterLocked(DismissDuration, func() func() {
		// A programmatic swipe requested mid-flight takes over: the card
		// is left hidden for its caller and the callback is skipped.
		if e.pending != nil {
			e.primeLocked()

			return nil
		}

		e.resetLocked()

		return e.onDismissed
	})
}

// TriggerSwipeAway throws the card off in a random preset direction. The
// returned channel is closed once the animation has finished and the card
// is hidden with its transform cleared, ready for new content; the Bind
// callback is not invoked. Calling it again before completion returns the
// same channel. Without a bound surface the channel is already closed.
func (e *Engine) TriggerSwipeAway() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.surface == nil {
		done := make(chan struct{})
		close(done)

		return done
	}

	if e.pending != nil {
		return e.pending
	}

	e.pending = make(chan struct{})

	if e.state == Dismissing {
		return e.pending
	}

	if e.state == Dragging {
		e.surface.RemoveClass("dragging")
	}
	e.state = Dismissing

	throw := Throws[e.intn(len(Throws))]

	e.surface.SetStyle("transition", fmt.Sprintf("transform %s %s, opacity %s ease-out", seconds(ThrowDuration), throwEasing, seconds(ThrowDuration)))
	e.surface.SetStyle("transform", transform(throw.X, throw.Y, throw.Rotation))
	e.surface.SetStyle("opacity", "0")

	e.afterLocked(ThrowDuration, func() func() {
		e.primeLocked()

		return nil
	})

	return e.pending
}

// primeLocked leaves the card invisible and neutral, then releases anyone
// waiting on the programmatic swipe.
func (e *Engine) primeLocked() {
	e.surface.SetStyle("transition", "")
	e.surface.SetStyle("transform", "")
	e.surface.SetStyle("opacity", "0")

	e.neutralLocked()

	if e.pending != nil {
		close(e.pending)
		e.pending = nil
	}
}

func (e *Engine) resetLocked() {
	e.surface.SetStyle("transition", "")
	e.surface.SetStyle("transform", "")
	e.surface.SetStyle("opacity", "")

	e.neutralLocked()
}

func (e *Engine) neutralLocked() {
	e.state = Idle
	e.origin = Point{}
	e.offset = Point{}
	e.flipped = false

	if inner := e.surface.Inner(); inner != nil {
		inner.SetStyle("transform", "rotateY(0deg)")
	}
}

// ShowCard fades the card back in after new content has been written to it
// while hidden.
func (e *Engine) ShowCard() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.surface == nil {
		return
	}

	e.surface.SetStyle("transition", fmt.Sprintf("opacity %s ease-out, transform %s ease-out", seconds(EnterDuration), seconds(EnterDuration)))
	e.surface.SetStyle("opacity", "1")
	e.surface.AddClass("card-enter")

	e.afterLocked(EnterDuration, func() func() {
		e.surface.RemoveClass("card-enter")
		if e.state == Idle {
			e.surface.SetStyle("transition", "")
		}

		return nil
	})
}

func transform(x, y, rotation float64) string {
	return "translate(" + number(x) + "px, " + number(y) + "px) rotate(" + number(rotation) + "deg)"
}

func number(v float64) string {
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0 // no "-0"
	}

	return strconv.FormatFloat(r, 'f', -1, 64)
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
}
