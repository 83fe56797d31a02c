package executor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/milankatira/uptime-sub000/internals/modules/tick"
)

func TestProbe_StatusOK(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	}))
	defer s.Close()

	out := NewProber().Probe(context.Background(), s.URL, 2*time.Second)
	if out.Status != tick.StatusGood {
		t.Fatalf("want GOOD, got %+v", out)
	}
	if out.StatusCode != 200 {
		t.Fatalf("want status 200, got %d", out.StatusCode)
	}
	if out.LatencyMillis < 0 {
		t.Fatalf("latency should be >= 0, got %d", out.LatencyMillis)
	}
}

func TestProbe_RedirectClassIsGood(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(304)
	}))
	defer s.Close()

	out := NewProber().Probe(context.Background(), s.URL, 2*time.Second)
	if out.Status != tick.StatusGood {
		t.Fatalf("status < 400 must be GOOD, got %+v", out)
	}
}

func TestProbe_Status500IsBad(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", 500)
	}))
	defer s.Close()

	out := NewProber().Probe(context.Background(), s.URL, 2*time.Second)
	if out.Status != tick.StatusBad {
		t.Fatalf("want BAD, got %+v", out)
	}
	if out.Reason != "HTTP_500" {
		t.Fatalf("want reason HTTP_500, got %q", out.Reason)
	}
}

func TestProbe_Status404IsBad(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
	}))
	defer s.Close()

	out := NewProber().Probe(context.Background(), s.URL, 2*time.Second)
	if out.Status != tick.StatusBad {
		t.Fatalf("4xx must be BAD, got %+v", out)
	}
}

func TestProbe_TimeoutIsBadWithLatency(t *testing.T) {
	// server sleeps longer than the probe deadline
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(200)
	}))
	defer s.Close()

	timeout := 50 * time.Millisecond
	out := NewProber().Probe(context.Background(), s.URL, timeout)

	if out.Status != tick.StatusBad {
		t.Fatalf("want BAD on timeout, got %+v", out)
	}
	if out.Reason != "TIMEOUT" {
		t.Fatalf("want reason TIMEOUT, got %q", out.Reason)
	}
	// latency is measured to the terminal outcome, so it sits near the deadline
	if out.LatencyMillis < timeout.Milliseconds() {
		t.Fatalf("latency %dms should be at least the %dms deadline", out.LatencyMillis, timeout.Milliseconds())
	}
	if out.LatencyMillis > 10*timeout.Milliseconds() {
		t.Fatalf("latency %dms is implausibly past the deadline", out.LatencyMillis)
	}
}

func TestProbe_ConnectionRefusedIsBad(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := s.URL
	s.Close()

	out := NewProber().Probe(context.Background(), url, time.Second)
	if out.Status != tick.StatusBad {
		t.Fatalf("refused connection must be BAD, got %+v", out)
	}
	if out.Reason == "" {
		t.Fatalf("want a classified reason for transport errors")
	}
}
