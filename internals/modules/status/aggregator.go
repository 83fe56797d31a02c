// Package status derives a monitor's health from its recent tick history.
// The same windowing is used by the worker pipeline for alerting and by the
// HTTP surface for presentation, so both always agree.
package status

import (
	"time"

	"github.com/milankatira/uptime-sub000/internals/modules/tick"
)

type Health string

const (
	Good    Health = "GOOD"
	Bad     Health = "BAD"
	Unknown Health = "UNKNOWN"
)

const (
	// Span is the total history considered by Aggregate.
	Span = 30 * time.Minute

	// WindowCount consecutive windows of WindowSize partition the span.
	WindowCount = 10
	WindowSize  = 3 * time.Minute

	// votingWindows is how many of the most recent non-empty windows must
	// agree before the overall health leaves Unknown.
	votingWindows = 3
)

// Windows buckets the ticks of the last Span into WindowCount consecutive
// windows, oldest first. A window holding no ticks is Unknown; otherwise it
// is Good when at least half its ticks are good.
func Windows(ticks []tick.Tick, now time.Time) [WindowCount]Health {
	var good, total [WindowCount]int

	rangeStart := now.Add(-Span)
	for i := range ticks {
		offset := ticks[i].ObservedAt.Sub(rangeStart)
		if offset < 0 {
			continue
		}
		idx := int(offset / WindowSize)
		if idx >= WindowCount {
			// observed exactly at (or marginally past) now
			idx = WindowCount - 1
		}
		total[idx]++
		if ticks[i].Status == tick.StatusGood {
			good[idx]++
		}
	}

	var out [WindowCount]Health
	for i := range out {
		switch {
		case total[i] == 0:
			out[i] = Unknown
		case good[i]*2 >= total[i]:
			out[i] = Good
		default:
			out[i] = Bad
		}
	}
	return out
}

// Aggregate reduces a tick history to the overall health used for alerting:
// the three most recent non-empty windows must agree unanimously, anything
// mixed (or with fewer than three non-empty windows) stays Unknown so a
// flapping monitor never triggers an incident transition.
func Aggregate(ticks []tick.Tick, now time.Time) Health {
	windows := Windows(ticks, now)

	var recent []Health
	for i := WindowCount - 1; i >= 0 && len(recent) < votingWindows; i-- {
		if windows[i] == Unknown {
			continue
		}
		recent = append(recent, windows[i])
	}

	if len(recent) < votingWindows {
		return Unknown
	}

	first := recent[0]
	for _, h := range recent[1:] {
		if h != first {
			return Unknown
		}
	}
	return first
}
