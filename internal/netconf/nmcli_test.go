package netconf

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseActiveConnections(t *testing.T) {
	t.Run("prefers wifi and ethernet devices", func(t *testing.T) {
		out := "lo-uuid:loopback:lo\n" +
			"vpn-uuid:vpn:\n" +
			"eth-uuid:ethernet:enp3s0\n"
		conn, ok := parseActiveConnections(out)
		if !ok {
			t.Fatal("expected a connection")
		}
		if conn.UUID != "eth-uuid" || conn.Device != "enp3s0" {
			t.Fatalf("wrong connection: %+v", conn)
		}
	})

	t.Run("falls back to the first active connection", func(t *testing.T) {
		out := "vpn-uuid:vpn:tun0\n"
		conn, ok := parseActiveConnections(out)
		if !ok {
			t.Fatal("expected fallback connection")
		}
		if conn.UUID != "vpn-uuid" {
			t.Fatal("wrong fallback:", conn.UUID)
		}
	})

	t.Run("no connections", func(t *testing.T) {
		if _, ok := parseActiveConnections("\n\n"); ok {
			t.Fatal("expected no connection")
		}
	})
}

func TestBuildApplyBatch(t *testing.T) {
	t.Run("ipv4 only clears ipv6", func(t *testing.T) {
		conn := Connection{UUID: "abc", Device: "wlan0"}
		batch := buildApplyBatch(conn, []string{"1.1.1.1", "1.0.0.1"})
		want := []string{
			"nmcli connection modify 'abc' ipv4.ignore-auto-dns yes ipv4.dns '1.1.1.1 1.0.0.1'",
			"nmcli connection modify 'abc' ipv6.dns ''",
			"nmcli connection up 'abc'",
			"resolvectl dns 'wlan0' '1.1.1.1' '1.0.0.1'",
		}
		if diff := cmp.Diff(want, batch); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("mixed families split correctly", func(t *testing.T) {
		conn := Connection{UUID: "abc"}
		batch := buildApplyBatch(conn, []string{"8.8.8.8", "2001:4860:4860::8888"})
		want := []string{
			"nmcli connection modify 'abc' ipv4.ignore-auto-dns yes ipv4.dns '8.8.8.8'",
			"nmcli connection modify 'abc' ipv6.ignore-auto-dns yes ipv6.dns '2001:4860:4860::8888'",
			"nmcli connection up 'abc'",
		}
		if diff := cmp.Diff(want, batch); diff != "" {
			t.Fatal(diff)
		}
	})
}

func TestSplitTerseList(t *testing.T) {
	t.Run("ipv4 list", func(t *testing.T) {
		got := splitTerseList("1.1.1.1,1.0.0.1\n")
		if diff := cmp.Diff([]string{"1.1.1.1", "1.0.0.1"}, got); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("escaped ipv6 colons", func(t *testing.T) {
		got := splitTerseList(`2001\:4860\:4860\:\:8888`)
		if diff := cmp.Diff([]string{"2001:4860:4860::8888"}, got); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("empty output", func(t *testing.T) {
		if got := splitTerseList("\n"); got != nil {
			t.Fatal("expected nil, got", got)
		}
	})
}

func TestShQuote(t *testing.T) {
	if got := shQuote("plain"); got != "'plain'" {
		t.Fatal(got)
	}
	if got := shQuote("a'b"); got != `'a'\''b'` {
		t.Fatal(got)
	}
}
