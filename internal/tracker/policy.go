package tracker

import "time"

// Policy decides the delay before the next status poll.
type Policy struct {
	Base             time.Duration // delay after forward progress and for the first poll
	Growth           float64       // multiplier applied when nothing changed
	Max              time.Duration // cap while the server answers
	FailureMax       time.Duration // cap while the server is unreachable
	FailureThreshold int           // consecutive failures before the tracker reports offline
}

// DefaultPolicy returns the stock polling policy: 2s base, 1.5x growth,
// 15s cap, 20s cap on transport failures, offline after 3 failures.
func DefaultPolicy() Policy {
	return Policy{
		Base:             2 * time.Second,
		Growth:           1.5,
		Max:              15 * time.Second,
		FailureMax:       20 * time.Second,
		FailureThreshold: 3,
	}
}

// Normalize fills unset or nonsensical fields from DefaultPolicy.
func (p Policy) Normalize() Policy {
	def := DefaultPolicy()
	if p.Base <= 0 {
		p.Base = def.Base
	}
	if p.Growth < 1 {
		p.Growth = def.Growth
	}
	if p.Max < p.Base {
		p.Max = max(def.Max, p.Base)
	}
	if p.FailureMax < p.Max {
		p.FailureMax = max(def.FailureMax, p.Max)
	}
	if p.FailureThreshold <= 0 {
		p.FailureThreshold = def.FailureThreshold
	}
	return p
}

// Next returns the delay after a successful poll. Forward progress resets
// to Base; otherwise current grows by Growth, capped at Max.
func (p Policy) Next(current time.Duration, advanced bool) time.Duration {
	p = p.Normalize()
	if advanced {
		return p.Base
	}
	return p.grow(current, p.Max)
}

// NextFailure returns the delay after a transport failure: current grows by
// Growth, capped at FailureMax.
func (p Policy) NextFailure(current time.Duration) time.Duration {
	p = p.Normalize()
	return p.grow(current, p.FailureMax)
}

func (p Policy) grow(current, ceiling time.Duration) time.Duration {
	if current < p.Base {
		current = p.Base
	}
	next := time.Duration(float64(current) * p.Growth)
	if next > ceiling {
		return ceiling
	}
	return next
}

// advanced reports whether next is forward progress over the highest value
// seen so far. A first numeric value counts; unknown progress never does.
func advanced(highest, next *int) bool {
	if next == nil {
		return false
	}
	return highest == nil || *next > *highest
}
