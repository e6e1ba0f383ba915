// Package probe issues single timed DNS queries against specific servers.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/miekg/dns"
	"github.com/montanaflynn/stats"
)

// Status classifies the outcome of a probe.
type Status string

const (
	StatusOK          Status = "ok"
	StatusTimeout     Status = "timeout"
	StatusUnreachable Status = "unreachable"
	StatusError       Status = "error"
)

// Result is the immutable outcome of probing one server. All failure modes
// are encoded in Status; a probe never returns a Go error to its caller.
type Result struct {
	Server  string
	Latency time.Duration
	Status  Status
	Failure string
}

// OK reports whether the probe measured a latency.
func (r Result) OK() bool { return r.Status == StatusOK }

// Prober measures the response time of a single DNS server.
type Prober interface {
	Probe(ctx context.Context, server string) Result
}

// Client probes servers with plain DNS-over-UDP A queries for a fixed
// canonical name.
type Client struct {
	queryName string
	timeout   time.Duration
	attempts  int
	dns       *dns.Client
}

// New creates a probe client. attempts below 1 is treated as 1; when
// attempts is larger, each server is queried that many times and the best
// successful latency is reported.
func New(queryName string, timeout time.Duration, attempts int) *Client {
	if attempts < 1 {
		attempts = 1
	}
	return &Client{
		queryName: dns.Fqdn(queryName),
		timeout:   timeout,
		attempts:  attempts,
		dns: &dns.Client{
			Net:     "udp",
			Timeout: timeout,
		},
	}
}

// Probe issues the configured number of queries against server and returns
// one Result. Per-attempt timeouts are enforced by the DNS client; the
// passed context additionally bounds the whole probe.
func (c *Client) Probe(ctx context.Context, server string) Result {
	var latencies []float64
	var firstFailure *Result

	for i := 0; i < c.attempts; i++ {
		res := c.exchange(ctx, server)
		if res.OK() {
			latencies = append(latencies, float64(res.Latency))
			continue
		}
		if firstFailure == nil {
			failure := res
			firstFailure = &failure
		}
		if ctx.Err() != nil {
			break
		}
	}

	if len(latencies) == 0 {
		return *firstFailure
	}

	best, err := stats.Min(latencies)
	if err != nil {
		return Result{Server: server, Status: StatusError, Failure: err.Error()}
	}
	return Result{
		Server:  server,
		Latency: time.Duration(best),
		Status:  StatusOK,
	}
}

func (c *Client) exchange(ctx context.Context, server string) Result {
	msg := new(dns.Msg)
	msg.SetQuestion(c.queryName, dns.TypeA)
	msg.RecursionDesired = true

	// Servers are normally bare IP literals; port 53 is implied unless the
	// address already carries a port.
	addr := server
	if _, _, err := net.SplitHostPort(server); err != nil {
		addr = net.JoinHostPort(server, "53")
	}
	reply, rtt, err := c.dns.ExchangeContext(ctx, msg, addr)
	if err != nil {
		return Result{
			Server:  server,
			Status:  classify(err),
			Failure: err.Error(),
		}
	}
	if reply.Rcode != dns.RcodeSuccess {
		return Result{
			Server:  server,
			Status:  StatusError,
			Failure: fmt.Sprintf("server returned %s", dns.RcodeToString[reply.Rcode]),
		}
	}
	return Result{Server: server, Latency: rtt, Status: StatusOK}
}

// classify maps a transport error onto a probe status: deadline expiry is a
// timeout, an immediate transport failure is unreachable, anything else is
// a protocol error.
func classify(err error) Status {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return StatusTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return StatusTimeout
	}
	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH):
		return StatusUnreachable
	}
	return StatusError
}
