package latency

import "time"

// Policy decides how long a single scan waits before it is analyzed. The wait
// stands in for the latency of a real reputation lookup.
type Policy interface {
	Delay() time.Duration
}

type fixed time.Duration

func (f fixed) Delay() time.Duration { return time.Duration(f) }

// Fixed waits d before every scan.
func Fixed(d time.Duration) Policy {
	if d < 0 {
		d = 0
	}
	return fixed(d)
}

// None never waits.
func None() Policy { return fixed(0) }

// Sleeper blocks for a duration. Tests replace it to observe waits without
// spending wall-clock time.
type Sleeper func(time.Duration)

// Wait applies p using sleep. Zero delays return immediately.
func Wait(p Policy, sleep Sleeper) {
	if p == nil {
		return
	}
	d := p.Delay()
	if d <= 0 {
		return
	}
	if sleep == nil {
		sleep = time.Sleep
	}
	sleep(d)
}
