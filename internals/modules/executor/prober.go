package executor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/milankatira/uptime-sub000/internals/modules/tick"
	"github.com/milankatira/uptime-sub000/pkg/httpclient"
)

// ProbeOutcome is the classified result of one HTTP check. A transport
// failure is a normal BAD outcome, never a pipeline error; latency is
// measured to the terminal outcome so timeouts still carry one.
type ProbeOutcome struct {
	Status        tick.Status
	StatusCode    int
	LatencyMillis int64
	Reason        string
}

type Prober struct {
	client *http.Client
}

func NewProber() *Prober {
	return &Prober{
		client: httpclient.NewHttpClient(),
	}
}

// Probe issues a single GET against the target with the given deadline.
// GOOD iff the response completes before the deadline with a status code
// below 400. No retries here; redelivery policy lives at the queue layer.
func (p *Prober) Probe(ctx context.Context, targetURL string, timeout time.Duration) ProbeOutcome {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, targetURL, nil)
	if err != nil {
		return ProbeOutcome{
			Status:        tick.StatusBad,
			LatencyMillis: time.Since(start).Milliseconds(),
			Reason:        "INVALID_REQUEST",
		}
	}

	resp, err := p.client.Do(req)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return ProbeOutcome{
			Status:        tick.StatusBad,
			LatencyMillis: latency,
			Reason:        classifyError(err),
		}
	}
	defer resp.Body.Close()

	outcome := ProbeOutcome{
		StatusCode:    resp.StatusCode,
		LatencyMillis: latency,
	}
	if resp.StatusCode < 400 {
		outcome.Status = tick.StatusGood
	} else {
		outcome.Status = tick.StatusBad
		outcome.Reason = fmt.Sprintf("HTTP_%d", resp.StatusCode)
	}
	return outcome
}

func classifyError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "TIMEOUT"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "DNS_FAILURE"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "TIMEOUT"
		}
		return "NETWORK_ERROR"
	}

	return "UNKNOWN_ERROR"
}
