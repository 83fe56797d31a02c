package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type recordingChannel struct {
	name string
	err  error

	mu   sync.Mutex
	sent []Event
}

func (c *recordingChannel) Name() string { return c.name }

func (c *recordingChannel) Send(_ context.Context, e Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, e)
	return nil
}

func (c *recordingChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func TestDispatcher_FansOutToSelectedChannels(t *testing.T) {
	email := &recordingChannel{name: ChannelEmail}
	push := &recordingChannel{name: ChannelPush}
	logger := zerolog.Nop()

	d := NewDispatcher(1, 10, time.Second, []Channel{email, push}, &logger)
	d.Start()

	d.Publish(Event{
		IncidentID: uuid.New(),
		Channels:   []string{ChannelEmail},
	})
	d.Shutdown()

	if email.count() != 1 {
		t.Fatalf("email channel must receive the event, got %d", email.count())
	}
	if push.count() != 0 {
		t.Fatalf("push channel was not selected, got %d", push.count())
	}
}

func TestDispatcher_ChannelFailureIsIsolated(t *testing.T) {
	failing := &recordingChannel{name: ChannelEmail, err: errors.New("smtp down")}
	ok := &recordingChannel{name: ChannelPush}
	logger := zerolog.Nop()

	d := NewDispatcher(1, 10, time.Second, []Channel{failing, ok}, &logger)
	d.Start()

	d.Publish(Event{
		IncidentID: uuid.New(),
		Channels:   []string{ChannelEmail, ChannelPush},
	})
	d.Shutdown()

	if ok.count() != 1 {
		t.Fatalf("one channel failing must not block the others")
	}
}

func TestDispatcher_FullQueueDropsWithoutBlocking(t *testing.T) {
	logger := zerolog.Nop()

	// no workers started, so the queue never drains
	d := NewDispatcher(1, 1, time.Second, nil, &logger)

	if ok := d.Publish(Event{IncidentID: uuid.New()}); !ok {
		t.Fatalf("first event fits the queue")
	}

	done := make(chan bool, 1)
	go func() {
		done <- d.Publish(Event{IncidentID: uuid.New()})
	}()

	select {
	case accepted := <-done:
		if accepted {
			t.Fatalf("second event must be dropped, not enqueued")
		}
	case <-time.After(time.Second):
		t.Fatalf("publish must never block the caller")
	}
}

func TestWebhookChannel_PostsIncident(t *testing.T) {
	var got webhookPayload
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode webhook body: %v", err)
		}
		w.WriteHeader(200)
	}))
	defer s.Close()

	ch := NewWebhookChannel(s.URL)
	err := ch.Send(context.Background(), Event{
		IncidentID:  uuid.New(),
		MonitorName: "checkout-api",
		Cause:       "health check failing",
		ErrorCode:   "HTTP_503",
		StartedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(got.Text, "checkout-api") || !strings.Contains(got.Text, "HTTP_503") {
		t.Fatalf("payload missing incident details: %q", got.Text)
	}
}

func TestWebhookChannel_Non2xxIsError(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", 500)
	}))
	defer s.Close()

	ch := NewWebhookChannel(s.URL)
	if err := ch.Send(context.Background(), Event{IncidentID: uuid.New()}); err == nil {
		t.Fatalf("5xx from the webhook must surface as an error")
	}
}
