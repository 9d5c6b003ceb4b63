package mapclient

import (
	"strings"
	"time"
)

// Environment carries the device and network signals the interval
// selector reads. Zero values mean "unknown" and fall through to the
// default interval.
type Environment struct {
	// EffectiveConnectionType as reported by the platform, e.g. "4g",
	// "3g", "2g", "slow-2g".
	EffectiveConnectionType string
	// SaveData is the user's data-saver preference.
	SaveData bool
	// ViewportWidth in logical pixels.
	ViewportWidth int
}

const (
	constrainedInterval = 500 * time.Millisecond
	narrowInterval      = 300 * time.Millisecond
	defaultInterval     = 200 * time.Millisecond

	narrowViewportWidth = 768
)

// IntervalFor returns the minimum spacing between viewport requests
// for the given environment. Pure function of its input.
func IntervalFor(env Environment) time.Duration {
	if env.SaveData || strings.Contains(env.EffectiveConnectionType, "2g") {
		return constrainedInterval
	}
	if env.ViewportWidth > 0 && env.ViewportWidth <= narrowViewportWidth {
		return narrowInterval
	}
	return defaultInterval
}
