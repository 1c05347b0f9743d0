// Package feed supplies price-bar sequences to the engine: caller-provided
// slices, CSV exports from a market-data provider, and a seeded synthetic
// random walk for demos. The engine itself never fetches data; this
// package is the inbound boundary it consumes bars through.
package feed

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInterval is returned for unsupported interval names.
var ErrInvalidInterval = errors.New("feed: unsupported interval")

// windowHours is the size of the sliding chart window the UI renders,
// used to size the number of bars a feed should preload.
const windowHours = 5

// Interval is a validated bar interval.
type Interval struct {
	Name string        `json:"name"`
	Step time.Duration `json:"step"`
}

// Supported bar intervals, matching what the market-data provider serves.
var intervals = map[string]time.Duration{
	"5m":  5 * time.Minute,
	"10m": 10 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
}

// ParseInterval validates an interval name like "15m" or "1h".
func ParseInterval(name string) (Interval, error) {
	step, ok := intervals[name]
	if !ok {
		return Interval{}, fmt.Errorf("%w: %q (expected one of 5m, 10m, 15m, 30m, 1h)",
			ErrInvalidInterval, name)
	}
	return Interval{Name: name, Step: step}, nil
}

// WindowBars returns how many bars of this interval fill the display window.
func (iv Interval) WindowBars() int {
	return int(windowHours * time.Hour / iv.Step)
}
