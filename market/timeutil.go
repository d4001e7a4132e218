package market

import "time"

// NowMillis returns the current wall clock in milliseconds since epoch.
func NowMillis() uint64 {
	return uint64(time.Now().UnixMilli())
}

// NowMicros returns the current wall clock in microseconds since epoch.
func NowMicros() uint64 {
	return uint64(time.Now().UnixMicro())
}

// ToMicros coerces an epoch timestamp of unknown resolution (seconds,
// milliseconds, or microseconds) to microseconds. Venues disagree on
// units; every event timestamp goes through this before publication.
func ToMicros(ts uint64) uint64 {
	switch {
	case ts <= 9_999_999_999:
		return ts * 1_000_000
	case ts <= 9_999_999_999_999:
		return ts * 1_000
	default:
		return ts
	}
}
