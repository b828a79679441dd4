// Package clock abstracts "current time" so that scheduling and dueness
// logic can be tested against a fixed instant.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System is the production clock backed by time.Now.
var System Clock = systemClock{}

type fixedClock struct {
	t time.Time
}

func (f fixedClock) Now() time.Time { return f.t }

// Fixed returns a Clock frozen at t.
func Fixed(t time.Time) Clock { return fixedClock{t: t} }
