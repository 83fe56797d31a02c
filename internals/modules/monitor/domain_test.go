package monitor

import (
	"reflect"
	"testing"
	"time"

	"github.com/milankatira/uptime-sub000/internals/modules/notify"
)

func TestMaintenanceWindow_Contains(t *testing.T) {
	window := MaintenanceWindow{
		Days:     []time.Weekday{time.Sunday},
		Start:    "02:00",
		End:      "04:00",
		Timezone: "UTC",
	}

	// 2026-03-01 is a Sunday
	inside := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)
	if !window.Contains(inside) {
		t.Fatalf("03:00 Sunday must be inside 02:00-04:00")
	}

	before := time.Date(2026, 3, 1, 1, 59, 0, 0, time.UTC)
	if window.Contains(before) {
		t.Fatalf("01:59 is before the window")
	}

	atEnd := time.Date(2026, 3, 1, 4, 0, 0, 0, time.UTC)
	if window.Contains(atEnd) {
		t.Fatalf("end is exclusive")
	}

	wrongDay := time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)
	if window.Contains(wrongDay) {
		t.Fatalf("Monday is not a configured day")
	}
}

func TestMaintenanceWindow_WrapsMidnight(t *testing.T) {
	window := MaintenanceWindow{
		Days:     []time.Weekday{time.Saturday},
		Start:    "23:00",
		End:      "01:00",
		Timezone: "UTC",
	}

	// Saturday 23:30 sits in the head of the window
	head := time.Date(2026, 2, 28, 23, 30, 0, 0, time.UTC)
	if !window.Contains(head) {
		t.Fatalf("Saturday 23:30 must be inside a 23:00-01:00 Saturday window")
	}

	// Sunday 00:30 belongs to the Saturday window's tail
	tail := time.Date(2026, 3, 1, 0, 30, 0, 0, time.UTC)
	if !window.Contains(tail) {
		t.Fatalf("Sunday 00:30 is the tail of the Saturday window")
	}

	// Sunday 23:30 is a fresh Sunday evening, not configured
	otherEvening := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	if window.Contains(otherEvening) {
		t.Fatalf("Sunday evening is not inside a Saturday window")
	}
}

func TestMaintenanceWindow_Validate(t *testing.T) {
	valid := MaintenanceWindow{
		Days:     []time.Weekday{time.Monday},
		Start:    "09:00",
		End:      "17:00",
		Timezone: "Europe/Berlin",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid window rejected: %v", err)
	}

	bad := []MaintenanceWindow{
		{Start: "09:00", End: "17:00", Timezone: "UTC"},                                          // no days
		{Days: []time.Weekday{time.Monday}, Start: "9am", End: "17:00", Timezone: "UTC"},         // bad clock
		{Days: []time.Weekday{time.Monday}, Start: "09:00", End: "17:00", Timezone: "Mars/Base"}, // bad tz
	}
	for i, w := range bad {
		if err := w.Validate(); err == nil {
			t.Fatalf("window %d must fail validation", i)
		}
	}
}

func TestEscalationPolicy_Channels(t *testing.T) {
	cases := []struct {
		name   string
		policy EscalationPolicy
		want   []string
	}{
		{"email only", EscalationPolicy{Email: true}, []string{notify.ChannelEmail}},
		{"push only", EscalationPolicy{Push: true}, []string{notify.ChannelPush}},
		{"critical adds webhook", EscalationPolicy{Email: true, Critical: true}, []string{notify.ChannelEmail, notify.ChannelWebhook}},
		{"empty falls back to webhook", EscalationPolicy{}, []string{notify.ChannelWebhook}},
		{"call and sms have no transport", EscalationPolicy{Call: true, SMS: true}, []string{notify.ChannelWebhook}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.policy.Channels()
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
		})
	}
}

func TestInMaintenance(t *testing.T) {
	m := Monitor{
		Kind: KindPassive,
		Maintenance: []MaintenanceWindow{
			{Days: []time.Weekday{time.Sunday}, Start: "02:00", End: "04:00", Timezone: "UTC"},
			{Days: []time.Weekday{time.Wednesday}, Start: "22:00", End: "23:00", Timezone: "UTC"},
		},
	}

	sunday := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)
	if !m.InMaintenance(sunday) {
		t.Fatalf("first window must match")
	}

	wednesday := time.Date(2026, 3, 4, 22, 30, 0, 0, time.UTC)
	if !m.InMaintenance(wednesday) {
		t.Fatalf("second window must match")
	}

	tuesday := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)
	if m.InMaintenance(tuesday) {
		t.Fatalf("no window covers Tuesday noon")
	}
}
