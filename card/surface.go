/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package card

import "time"

// Surface is the visual element a card is drawn on. Styles and classes are
// applied to the element itself; Inner returns the face that rotates when
// the card is flipped, or nil if there is none.
type Surface interface {
	SetStyle(property, value string)
	AddClass(name string)
	RemoveClass(name string)
	Inner() Surface
}

// Timer is a pending delayed call.
type Timer interface {
	Stop() bool
}

// Clock schedules delayed calls. The engine never sleeps; every animation
// window is a single AfterFunc.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock runs callbacks on their own goroutine via time.AfterFunc.
var SystemClock Clock = systemClock{}
