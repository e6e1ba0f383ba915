package netconf

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	liberrors "dnsjumper/pkg/errors"
)

// pkexec exit codes, per polkit: 126 when the user dismissed the
// authentication dialog, 127 when authorization failed.
const (
	pkexecDismissed     = 126
	pkexecNotAuthorized = 127
)

// NMCli implements Configurator by shelling out to nmcli and resolvectl.
// All privileged commands for a single apply run under one pkexec
// invocation so the user sees at most one password prompt.
type NMCli struct{}

// NewNMCli creates the NetworkManager-backed configurator.
func NewNMCli() *NMCli {
	return &NMCli{}
}

// ActiveConnection picks the active connection to modify. Wifi and ethernet
// connections with a bound device win; otherwise the first active
// connection is used.
func (n *NMCli) ActiveConnection(ctx context.Context) (Connection, error) {
	args := []string{"-t", "-f", "UUID,TYPE,DEVICE", "connection", "show", "--active"}
	out, err := exec.CommandContext(ctx, "nmcli", args...).Output()
	if err != nil {
		return Connection{}, &liberrors.CommandError{
			Command: append([]string{"nmcli"}, args...),
			Output:  exitOutput(err),
			Err:     err,
		}
	}

	conn, ok := parseActiveConnections(string(out))
	if !ok {
		return Connection{}, liberrors.ErrNoConnection
	}
	return conn, nil
}

func parseActiveConnections(out string) (Connection, bool) {
	var fallback Connection
	haveFallback := false
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 3)
		if len(parts) < 3 {
			continue
		}
		conn := Connection{UUID: parts[0], Device: parts[2]}
		typ := parts[1]
		if conn.Device != "" && (typ == "wifi" || typ == "ethernet" || typ == "802-3-ethernet" || typ == "802-11-wireless") {
			return conn, true
		}
		if !haveFallback && conn.UUID != "" {
			fallback = conn
			haveFallback = true
		}
	}
	return fallback, haveFallback
}

// SetDNS rewrites the connection's DNS servers and reactivates it, then
// points resolvectl at the same servers for immediate effect. The whole
// batch runs under a single pkexec.
func (n *NMCli) SetDNS(ctx context.Context, conn Connection, servers []string) error {
	batch := buildApplyBatch(conn, servers)
	shellCmd := strings.Join(batch, " && ")

	cmd := exec.CommandContext(ctx, "pkexec", "bash", "-c", shellCmd)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if code := exitCode(err); code == pkexecDismissed || code == pkexecNotAuthorized {
			return fmt.Errorf("%w: authentication prompt declined", liberrors.ErrPermissionDenied)
		}
		return &liberrors.CommandError{
			Command: []string{"pkexec", "bash", "-c", shellCmd},
			Output:  string(out),
			Err:     err,
		}
	}
	return nil
}

// buildApplyBatch assembles the privileged nmcli/resolvectl commands for an
// apply. IPv4 and IPv6 servers configure their respective families; the
// family without servers is cleared.
func buildApplyBatch(conn Connection, servers []string) []string {
	var ipv4, ipv6 []string
	for _, s := range servers {
		if strings.Contains(s, ":") {
			ipv6 = append(ipv6, s)
		} else {
			ipv4 = append(ipv4, s)
		}
	}

	var batch []string
	if len(ipv4) > 0 {
		batch = append(batch, fmt.Sprintf("nmcli connection modify %s ipv4.ignore-auto-dns yes ipv4.dns %s",
			shQuote(conn.UUID), shQuote(strings.Join(ipv4, " "))))
	} else {
		batch = append(batch, fmt.Sprintf("nmcli connection modify %s ipv4.dns ''", shQuote(conn.UUID)))
	}
	if len(ipv6) > 0 {
		batch = append(batch, fmt.Sprintf("nmcli connection modify %s ipv6.ignore-auto-dns yes ipv6.dns %s",
			shQuote(conn.UUID), shQuote(strings.Join(ipv6, " "))))
	} else {
		batch = append(batch, fmt.Sprintf("nmcli connection modify %s ipv6.dns ''", shQuote(conn.UUID)))
	}
	batch = append(batch, "nmcli connection up "+shQuote(conn.UUID))

	if conn.Device != "" {
		parts := []string{"resolvectl", "dns", shQuote(conn.Device)}
		for _, s := range servers {
			parts = append(parts, shQuote(s))
		}
		batch = append(batch, strings.Join(parts, " "))
	}
	return batch
}

// CurrentDNS reads back the connection's configured DNS servers for both
// address families.
func (n *NMCli) CurrentDNS(ctx context.Context, conn Connection) ([]string, error) {
	var servers []string
	for _, field := range []string{"ipv4.dns", "ipv6.dns"} {
		args := []string{"-g", field, "connection", "show", conn.UUID}
		out, err := exec.CommandContext(ctx, "nmcli", args...).Output()
		if err != nil {
			return nil, &liberrors.CommandError{
				Command: append([]string{"nmcli"}, args...),
				Output:  exitOutput(err),
				Err:     err,
			}
		}
		servers = append(servers, splitTerseList(string(out))...)
	}
	return servers, nil
}

// FlushCaches clears the systemd-resolved caches.
func (n *NMCli) FlushCaches(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "pkexec", "resolvectl", "flush-caches")
	out, err := cmd.CombinedOutput()
	if err != nil {
		if code := exitCode(err); code == pkexecDismissed || code == pkexecNotAuthorized {
			return fmt.Errorf("%w: authentication prompt declined", liberrors.ErrPermissionDenied)
		}
		return &liberrors.CommandError{
			Command: []string{"pkexec", "resolvectl", "flush-caches"},
			Output:  string(out),
			Err:     err,
		}
	}
	return nil
}

// splitTerseList parses an nmcli -g value list. Values are comma separated
// and nmcli escapes ':' inside values (IPv6 literals) with a backslash.
func splitTerseList(out string) []string {
	var values []string
	for _, part := range strings.Split(strings.TrimSpace(out), ",") {
		part = strings.ReplaceAll(strings.TrimSpace(part), `\:`, ":")
		if part != "" {
			values = append(values, part)
		}
	}
	return values
}

// shQuote single-quotes s for inclusion in a bash -c command line.
func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func exitOutput(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(exitErr.Stderr)
	}
	return ""
}
