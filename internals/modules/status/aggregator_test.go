package status

import (
	"testing"
	"time"

	"github.com/milankatira/uptime-sub000/internals/modules/tick"

	"github.com/google/uuid"
)

var testMonitorID = uuid.New()

func tickAt(now time.Time, ago time.Duration, s tick.Status) tick.Tick {
	return tick.Tick{
		MonitorID:  testMonitorID,
		Status:     s,
		ObservedAt: now.Add(-ago),
	}
}

func TestWindows_MajorityVote(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// three ticks inside the oldest window: 2/3 good is a majority
	ticks := []tick.Tick{
		tickAt(now, 30*time.Minute, tick.StatusGood),
		tickAt(now, 29*time.Minute, tick.StatusGood),
		tickAt(now, 28*time.Minute, tick.StatusBad),
	}

	windows := Windows(ticks, now)
	if windows[0] != Good {
		t.Fatalf("want oldest window GOOD, got %s", windows[0])
	}
	for i := 1; i < WindowCount; i++ {
		if windows[i] != Unknown {
			t.Fatalf("window %d: want UNKNOWN, got %s", i, windows[i])
		}
	}
}

func TestWindows_ExactHalfIsGood(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ticks := []tick.Tick{
		tickAt(now, 2*time.Minute, tick.StatusGood),
		tickAt(now, 1*time.Minute, tick.StatusBad),
	}

	windows := Windows(ticks, now)
	if windows[WindowCount-1] != Good {
		t.Fatalf("1/2 good should still be GOOD, got %s", windows[WindowCount-1])
	}
}

func TestWindows_IgnoresTicksOutsideSpan(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ticks := []tick.Tick{
		tickAt(now, 31*time.Minute, tick.StatusBad),
		tickAt(now, 2*time.Hour, tick.StatusBad),
	}

	for i, w := range Windows(ticks, now) {
		if w != Unknown {
			t.Fatalf("window %d: stale ticks must not count, got %s", i, w)
		}
	}
}

func TestAggregate_ThreeWindowRule(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		statuses [3]tick.Status // one tick per window, oldest of the three first
		want     Health
	}{
		{"all bad", [3]tick.Status{tick.StatusBad, tick.StatusBad, tick.StatusBad}, Bad},
		{"all good", [3]tick.Status{tick.StatusGood, tick.StatusGood, tick.StatusGood}, Good},
		{"mixed flapping", [3]tick.Status{tick.StatusGood, tick.StatusBad, tick.StatusGood}, Unknown},
		{"recovering", [3]tick.Status{tick.StatusBad, tick.StatusBad, tick.StatusGood}, Unknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ticks := []tick.Tick{
				tickAt(now, 8*time.Minute, tc.statuses[0]),
				tickAt(now, 5*time.Minute, tc.statuses[1]),
				tickAt(now, 2*time.Minute, tc.statuses[2]),
			}
			if got := Aggregate(ticks, now); got != tc.want {
				t.Fatalf("want %s, got %s", tc.want, got)
			}
		})
	}
}

func TestAggregate_SkipsEmptyWindows(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// non-empty windows separated by gaps still vote
	ticks := []tick.Tick{
		tickAt(now, 26*time.Minute, tick.StatusBad),
		tickAt(now, 14*time.Minute, tick.StatusBad),
		tickAt(now, 2*time.Minute, tick.StatusBad),
	}

	if got := Aggregate(ticks, now); got != Bad {
		t.Fatalf("want BAD across sparse windows, got %s", got)
	}
}

func TestAggregate_InsufficientHistoryIsUnknown(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ticks := []tick.Tick{
		tickAt(now, 5*time.Minute, tick.StatusBad),
		tickAt(now, 2*time.Minute, tick.StatusBad),
	}

	if got := Aggregate(ticks, now); got != Unknown {
		t.Fatalf("two non-empty windows must not alert, got %s", got)
	}
}

func TestAggregate_NoTicks(t *testing.T) {
	now := time.Now()
	if got := Aggregate(nil, now); got != Unknown {
		t.Fatalf("want UNKNOWN for empty history, got %s", got)
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ticks := []tick.Tick{
		tickAt(now, 9*time.Minute, tick.StatusGood),
		tickAt(now, 6*time.Minute, tick.StatusGood),
		tickAt(now, 3*time.Minute, tick.StatusBad),
		tickAt(now, 1*time.Minute, tick.StatusGood),
	}

	first := Aggregate(ticks, now)
	for i := 0; i < 10; i++ {
		if got := Aggregate(ticks, now); got != first {
			t.Fatalf("call %d: want %s, got %s", i, first, got)
		}
	}
}
