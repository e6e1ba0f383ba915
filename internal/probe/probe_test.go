package probe

import (
	"context"
	"errors"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/miekg/dns"
)

// startServer runs an in-process DNS server on a loopback UDP port and
// returns its address. handler may delay or answer as the test requires.
func startServer(t *testing.T, handler dns.HandlerFunc) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	srv := &dns.Server{PacketConn: pc, Handler: handler}
	go srv.ActivateAndServe() //nolint:errcheck
	t.Cleanup(func() {
		srv.Shutdown() //nolint:errcheck
	})
	return pc.LocalAddr().String()
}

func answer(w dns.ResponseWriter, r *dns.Msg) {
	m := new(dns.Msg)
	m.SetReply(r)
	rr, err := dns.NewRR(r.Question[0].Name + " 60 IN A 93.184.216.34")
	if err == nil {
		m.Answer = append(m.Answer, rr)
	}
	w.WriteMsg(m) //nolint:errcheck
}

func TestProbe(t *testing.T) {
	t.Run("responsive server measures latency", func(t *testing.T) {
		addr := startServer(t, answer)

		c := New("example.com", time.Second, 1)
		res := c.Probe(context.Background(), addr)
		if !res.OK() {
			t.Fatalf("probe failed: %s %s", res.Status, res.Failure)
		}
		if res.Latency <= 0 {
			t.Fatal("expected positive latency, got", res.Latency)
		}
		if res.Server != addr {
			t.Fatal("result carries wrong server:", res.Server)
		}
	})

	t.Run("silent server times out", func(t *testing.T) {
		addr := startServer(t, func(dns.ResponseWriter, *dns.Msg) {
			// Never reply.
		})

		c := New("example.com", 100*time.Millisecond, 1)
		res := c.Probe(context.Background(), addr)
		if res.Status != StatusTimeout {
			t.Fatalf("status = %s, want %s (%s)", res.Status, StatusTimeout, res.Failure)
		}
		if res.Failure == "" {
			t.Fatal("timeout should carry a failure message")
		}
	})

	t.Run("refusing server reports error status", func(t *testing.T) {
		addr := startServer(t, func(w dns.ResponseWriter, r *dns.Msg) {
			m := new(dns.Msg)
			m.SetRcode(r, dns.RcodeRefused)
			w.WriteMsg(m) //nolint:errcheck
		})

		c := New("example.com", time.Second, 1)
		res := c.Probe(context.Background(), addr)
		if res.Status != StatusError {
			t.Fatalf("status = %s, want %s", res.Status, StatusError)
		}
		if res.Failure == "" {
			t.Fatal("expected rcode in failure message")
		}
	})

	t.Run("best latency over multiple attempts", func(t *testing.T) {
		addr := startServer(t, answer)

		c := New("example.com", time.Second, 3)
		res := c.Probe(context.Background(), addr)
		if !res.OK() {
			t.Fatalf("probe failed: %s %s", res.Status, res.Failure)
		}
	})

	t.Run("cancelled context stops further attempts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		addr := startServer(t, answer)
		c := New("example.com", time.Second, 5)
		res := c.Probe(ctx, addr)
		if res.Status != StatusTimeout {
			t.Fatalf("status = %s, want %s", res.Status, StatusTimeout)
		}
	})
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Status
	}{
		{"deadline", context.DeadlineExceeded, StatusTimeout},
		{"cancel", context.Canceled, StatusTimeout},
		{"refused", &net.OpError{Op: "read", Err: syscall.ECONNREFUSED}, StatusUnreachable},
		{"host unreachable", &net.OpError{Op: "write", Err: syscall.EHOSTUNREACH}, StatusUnreachable},
		{"net unreachable", &net.OpError{Op: "write", Err: syscall.ENETUNREACH}, StatusUnreachable},
		{"other", errors.New("dns: bad flags"), StatusError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classify(tc.err); got != tc.want {
				t.Fatalf("classify(%v) = %s, want %s", tc.err, got, tc.want)
			}
		})
	}
}
