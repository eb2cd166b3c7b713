package domain

import (
	"fmt"
	"time"
)

// LocalTime returns the instant t expressed in a fixed zone offsetSeconds east
// of UTC. The host's own time zone is never consulted, so the wall clock of
// the result is the same on every machine.
func LocalTime(t time.Time, offsetSeconds int) time.Time {
	return t.In(time.FixedZone(zoneName(offsetSeconds), offsetSeconds))
}

// LocalTimeFromUnix is LocalTime for a Unix timestamp in seconds.
func LocalTimeFromUnix(sec int64, offsetSeconds int) time.Time {
	return LocalTime(time.Unix(sec, 0), offsetSeconds)
}

// zoneName renders an offset as "UTC+05:30" style.
func zoneName(offsetSeconds int) string {
	sign := '+'
	if offsetSeconds < 0 {
		sign = '-'
		offsetSeconds = -offsetSeconds
	}
	return fmt.Sprintf("UTC%c%02d:%02d", sign, offsetSeconds/3600, (offsetSeconds%3600)/60)
}
