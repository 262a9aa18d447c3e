/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package card

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type fakeClock struct {
	now    time.Duration
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	target := c.now + d
	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at > target {
				continue
			}
			if next == nil || t.at < next.at {
				next = t
			}
		}
		if next == nil {
			break
		}
		c.now = next.at
		next.fired = true
		next.f()
	}
	c.now = target
}

type fakeSurface struct {
	styles  map[string]string
	classes map[string]bool
	inner   *fakeSurface
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		styles:  map[string]string{},
		classes: map[string]bool{},
		inner:   &fakeSurface{styles: map[string]string{}, classes: map[string]bool{}},
	}
}

func (s *fakeSurface) SetStyle(property, value string) { s.styles[property] = value }
func (s *fakeSurface) AddClass(name string)            { s.classes[name] = true }
func (s *fakeSurface) RemoveClass(name string)         { delete(s.classes, name) }

func (s *fakeSurface) Inner() Surface {
	if s.inner == nil {
		return nil
	}
	return s.inner
}

func setup(t *testing.T, opts ...Option) (*Engine, *fakeSurface, *fakeClock, *int) {
	t.Helper()

	clock := &fakeClock{}
	surface := newFakeSurface()
	dismissed := 0

	e := New(clock, append([]Option{WithRand(func(int) int { return 1 })}, opts...)...)
	e.Bind(surface, func() { dismissed++ })

	return e, surface, clock, &dismissed
}

func drag(e *Engine, dx, dy float64) {
	e.PointerDown(100, 100)
	e.PointerMove(100+dx/2, 100+dy/2)
	e.PointerMove(100+dx, 100+dy)
	e.PointerUp()
}

func TestDragFollowsPointer(t *testing.T) {
	e, surface, _, _ := setup(t)

	assert.True(t, e.PointerDown(10, 20))
	assert.Equal(t, Dragging, e.State())
	assert.True(t, surface.classes["dragging"])

	e.PointerMove(60, 20)
	assert.Equal(t, Point{X: 50, Y: 0}, e.Offset())
	assert.Equal(t, "translate(50px, 0px) rotate(5deg)", surface.styles["transform"])
	assert.Equal(t, "0.83", surface.styles["opacity"])

	e.PointerMove(10, 420)
	assert.Equal(t, "0.3", surface.styles["opacity"], "opacity is floored while dragging")
}

func TestShortDragSnapsBack(t *testing.T) {
	e, surface, clock, dismissed := setup(t)

	drag(e, 60, 40)

	assert.Equal(t, Idle, e.State())
	assert.Equal(t, Point{}, e.Offset())
	assert.False(t, surface.classes["dragging"])
	assert.Equal(t, "translate(0px, 0px) rotate(0deg)", surface.styles["transform"])
	assert.Equal(t, "1", surface.styles["opacity"])
	assert.Contains(t, surface.styles["transition"], "0.3s")

	clock.Advance(SnapBackDuration)
	assert.Equal(t, "", surface.styles["transition"])
	assert.Equal(t, 0, *dismissed)
	assert.False(t, e.Flipped())
}

func TestLongDragDismissesOnce(t *testing.T) {
	e, surface, clock, dismissed := setup(t)

	drag(e, 200, 0)

	assert.Equal(t, Dismissing, e.State())
	assert.Equal(t, "translate(1000px, 0px) rotate(100deg)", surface.styles["transform"])
	assert.Equal(t, "0", surface.styles["opacity"])

	clock.Advance(DismissDuration - time.Millisecond)
	assert.Equal(t, 0, *dismissed)

	clock.Advance(time.Millisecond)
	assert.Equal(t, 1, *dismissed)
	assert.Equal(t, Idle, e.State())
	assert.Equal(t, Point{}, e.Offset())
	assert.Equal(t, "", surface.styles["transform"])
	assert.Equal(t, "", surface.styles["opacity"])

	clock.Advance(time.Second)
	assert.Equal(t, 1, *dismissed)

	e.PointerDown(5, 5)
	e.PointerUp()
	assert.True(t, e.Flipped(), "drag state must not leak into tap detection")
}

func TestThresholdIsInclusive(t *testing.T) {
	e, _, clock, dismissed := setup(t)

	drag(e, 72, 96) // distance 120

	clock.Advance(DismissDuration)
	assert.Equal(t, 1, *dismissed)
}

func TestDismissFlightResetsFlip(t *testing.T) {
	e, surface, clock, _ := setup(t)

	e.PointerDown(0, 0)
	e.PointerUp()
	require.True(t, e.Flipped())

	drag(e, 0, -300)
	clock.Advance(DismissDuration)

	assert.False(t, e.Flipped())
	assert.Equal(t, "rotateY(0deg)", surface.inner.styles["transform"])
}

func TestPointerInputIgnoredWhileDismissing(t *testing.T) {
	e, surface, clock, dismissed := setup(t)

	drag(e, -300, 0)
	transform := surface.styles["transform"]

	assert.False(t, e.PointerDown(0, 0))
	e.PointerMove(50, 50)
	e.PointerUp()

	assert.Equal(t, Dismissing, e.State())
	assert.Equal(t, transform, surface.styles["transform"])

	clock.Advance(DismissDuration)
	assert.Equal(t, 1, *dismissed)
}

func TestSwipeAwaySoonAfterSnapBackKeepsTransition(t *testing.T) {
	e, surface, clock, _ := setup(t)

	drag(e, 60, 0)
	clock.Advance(SnapBackDuration / 3)

	done := e.TriggerSwipeAway()
	transition := surface.styles["transition"]
	assert.Contains(t, transition, throwEasing)

	clock.Advance(SnapBackDuration)
	assert.Equal(t, Dismissing, e.State())
	assert.Equal(t, transition, surface.styles["transition"], "snap-back timer must not cut the throw short")

	clock.Advance(ThrowDuration)
	<-done
	assert.Equal(t, "", surface.styles["transition"])
}

func TestTapTogglesFlip(t *testing.T) {
	e, surface, _, _ := setup(t)

	for _, want := range []bool{true, false, true} {
		e.PointerDown(50, 50)
		e.PointerUp()
		assert.Equal(t, want, e.Flipped())
	}
	assert.Equal(t, "rotateY(180deg)", surface.inner.styles["transform"])
}

func TestJitterStillCountsAsTap(t *testing.T) {
	e, surface, _, _ := setup(t)

	e.PointerDown(50, 50)
	e.PointerMove(52, 51)
	e.PointerUp()

	assert.True(t, e.Flipped())
	assert.Equal(t, Point{}, e.Offset())
	assert.Equal(t, "", surface.styles["transform"])
}

func TestDragNeverFlips(t *testing.T) {
	e, _, clock, _ := setup(t)

	drag(e, 10, 0)
	assert.False(t, e.Flipped())

	drag(e, 500, 0)
	clock.Advance(DismissDuration)
	assert.False(t, e.Flipped())
}

func TestFlipWithoutInnerSurface(t *testing.T) {
	e, surface, _, _ := setup(t)
	surface.inner = nil

	e.Flip()
	assert.False(t, e.Flipped())
}

func TestCancelSnapsBackWithoutFlipping(t *testing.T) {
	e, _, clock, dismissed := setup(t)

	e.PointerDown(0, 0)
	e.PointerCancel()

	assert.Equal(t, Idle, e.State())
	assert.False(t, e.Flipped())

	clock.Advance(time.Second)
	assert.Equal(t, 0, *dismissed)
}

func TestTriggerSwipeAway(t *testing.T) {
	e, surface, clock, dismissed := setup(t)

	e.Flip()
	done := e.TriggerSwipeAway()

	assert.Equal(t, Dismissing, e.State())
	assert.Equal(t, "translate(800px, -200px) rotate(45deg)", surface.styles["transform"])
	assert.Equal(t, "0", surface.styles["opacity"])

	clock.Advance(ThrowDuration - time.Millisecond)
	select {
	case <-done:
		t.Fatal("completed before the animation finished")
	default:
	}

	clock.Advance(time.Millisecond)
	select {
	case <-done:
	default:
		t.Fatal("not completed after the animation finished")
	}

	assert.Equal(t, 0, *dismissed, "programmatic swipes never invoke the callback")
	assert.Equal(t, "0", surface.styles["opacity"], "card stays hidden for the content swap")
	assert.Equal(t, "", surface.styles["transform"])
	assert.Equal(t, Idle, e.State())
	assert.False(t, e.Flipped())
}

func TestTriggerSwipeAwayCoalesces(t *testing.T) {
	e, _, clock, _ := setup(t)

	first := e.TriggerSwipeAway()
	clock.Advance(ThrowDuration / 2)
	second := e.TriggerSwipeAway()

	assert.Equal(t, first, second)

	clock.Advance(ThrowDuration / 2)
	<-first

	third := e.TriggerSwipeAway()
	assert.NotEqual(t, first, third)
}

func TestTriggerSwipeAwayDuringDragDismissal(t *testing.T) {
	e, surface, clock, dismissed := setup(t)

	drag(e, 300, 0)
	done := e.TriggerSwipeAway()

	clock.Advance(DismissDuration)
	<-done

	assert.Equal(t, 0, *dismissed)
	assert.Equal(t, "0", surface.styles["opacity"])
	assert.Equal(t, Idle, e.State())
}

func TestTriggerSwipeAwayAbortsDrag(t *testing.T) {
	e, surface, clock, _ := setup(t)

	e.PointerDown(0, 0)
	e.PointerMove(30, 0)
	done := e.TriggerSwipeAway()

	assert.False(t, surface.classes["dragging"])

	clock.Advance(ThrowDuration)
	<-done
	assert.Equal(t, Point{}, e.Offset())
}

func TestShowCard(t *testing.T) {
	e, surface, clock, _ := setup(t)

	<-func() <-chan struct{} {
		done := e.TriggerSwipeAway()
		clock.Advance(ThrowDuration)
		return done
	}()

	e.ShowCard()
	assert.True(t, surface.classes["card-enter"])
	assert.Equal(t, "1", surface.styles["opacity"])

	clock.Advance(EnterDuration)
	assert.False(t, surface.classes["card-enter"])
	assert.Equal(t, "", surface.styles["transition"])
}

func TestUnboundIsNoop(t *testing.T) {
	e := New(&fakeClock{})

	e.PointerDown(0, 0)
	e.PointerMove(500, 0)
	e.PointerUp()
	e.PointerCancel()
	e.Flip()
	e.ShowCard()

	select {
	case <-e.TriggerSwipeAway():
	default:
		t.Fatal("unbound swipe should complete immediately")
	}

	assert.Equal(t, Idle, e.State())
	assert.False(t, e.Bound())
}

func TestDestroy(t *testing.T) {
	e, surface, clock, dismissed := setup(t)

	drag(e, 300, 0)
	done := e.TriggerSwipeAway()

	e.Destroy()
	e.Destroy()

	<-done
	clock.Advance(time.Second)

	assert.Equal(t, 0, *dismissed)
	assert.False(t, e.Bound())

	before := len(surface.styles)
	e.PointerDown(0, 0)
	e.PointerMove(10, 10)
	assert.Len(t, surface.styles, before)
}

func TestRebind(t *testing.T) {
	e, first, clock, dismissed := setup(t)

	drag(e, 300, 0)

	second := newFakeSurface()
	rebound := 0
	e.Bind(second, func() { rebound++ })

	clock.Advance(time.Second)
	assert.Equal(t, 0, *dismissed, "stale dismissal is dropped on rebind")
	assert.Equal(t, Idle, e.State())

	drag(e, 0, 300)
	clock.Advance(DismissDuration)
	assert.Equal(t, 1, rebound)
	assert.Equal(t, "0", first.styles["opacity"], "old surface is left alone")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "dragging", Dragging.String())
	assert.Equal(t, "dismissing", Dismissing.String())
	assert.Equal(t, "State(7)", State(7).String())
}
