package sim

import (
	"errors"
	"log"
	"math"
)

// Freq defines the type of frequency
type Freq float64

// Defines the unit of frequency
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
	GHz Freq = 1e9
)

// ErrZeroFrequency is returned when a frequency of 0 is used where a clock
// period is required.
var ErrZeroFrequency = errors.New("sim: frequency cannot be 0")

// Period returns the time between two consecutive ticks, rounded to the
// nearest picosecond.
func (f Freq) Period() VTime {
	if f <= 0 {
		log.Panic(ErrZeroFrequency)
	}

	return VTime(math.Round(float64(S) / float64(f)))
}

// Cycle converts a time to the number of whole cycles passed since time 0.
func (f Freq) Cycle(t VTime) uint64 {
	return uint64(t / f.Period())
}

// ThisTick returns the tick time at or right after the given time.
//
//	               Input
//	               (          ]
//	    |----------|----------|----------|----->
//	                          |
//	                          Output
func (f Freq) ThisTick(now VTime) VTime {
	period := f.Period()
	if now%period == 0 {
		return now
	}

	return (now/period + 1) * period
}

// NextTick returns the tick time strictly after the given time.
//
//	               Input
//	               [          )
//	    |----------|----------|----------|----->
//	                          |
//	                          Output
func (f Freq) NextTick(now VTime) VTime {
	period := f.Period()
	return (now/period + 1) * period
}

// NCyclesLater returns the time after N cycles, aligned to a tick.
func (f Freq) NCyclesLater(n int, now VTime) VTime {
	return f.ThisTick(now) + VTime(n)*f.Period()
}

// HalfTick returns the time in middle of two ticks
//
//	               Input
//	               (          ]
//	    |----------|----------|----------|----->
//	                               |
//	                               Output
func (f Freq) HalfTick(t VTime) VTime {
	return f.ThisTick(t) + f.Period()/2
}
