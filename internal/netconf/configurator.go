// Package netconf commits DNS profiles to the system network configuration
// through NetworkManager, verifies the result, and rolls back on failure.
package netconf

import "context"

// Connection identifies an active NetworkManager connection.
type Connection struct {
	UUID   string
	Device string
}

// Configurator abstracts the system network-configuration interface. The
// engine never depends on a specific binary's argument syntax; the nmcli
// implementation is one backend.
type Configurator interface {
	// ActiveConnection discovers the connection whose DNS settings should
	// change, preferring wifi/ethernet devices.
	ActiveConnection(ctx context.Context) (Connection, error)

	// SetDNS pushes servers as the connection's DNS configuration. Requires
	// elevated privilege obtained through a synchronous user-facing prompt.
	SetDNS(ctx context.Context, conn Connection, servers []string) error

	// CurrentDNS re-reads the connection's effective DNS servers.
	CurrentDNS(ctx context.Context, conn Connection) ([]string, error)

	// FlushCaches clears the system resolver caches. May require privilege.
	FlushCaches(ctx context.Context) error
}
