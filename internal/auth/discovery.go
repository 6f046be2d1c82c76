package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/grandcat/zeroconf"
)

// ServiceType is the mDNS service the authorization server advertises.
const ServiceType = "_doorauth._tcp"

// DiscoverServer browses the local network for an authorization server
// when no static address is configured. The first instance with a
// resolvable IPv4 address wins. Discovery is a startup concern only; it
// is never consulted on the authorization path.
func DiscoverServer(ctx context.Context, timeout time.Duration) (string, int, error) {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver()
	if err != nil {
		return "", 0, fmt.Errorf("mdns resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	if err := resolver.Browse(ctx, ServiceType, "local.", entries); err != nil {
		return "", 0, fmt.Errorf("mdns browse: %w", err)
	}

	for entry := range entries {
		if len(entry.AddrIPv4) == 0 {
			slog.Debug("ignoring mDNS entry without IPv4 address", "instance", entry.Instance)
			continue
		}
		addr := entry.AddrIPv4[0].String()
		slog.Info("authorization server discovered",
			"instance", entry.Instance,
			"addr", addr,
			"port", entry.Port,
		)
		return addr, entry.Port, nil
	}
	return "", 0, fmt.Errorf("no %s service found within %s", ServiceType, timeout)
}
