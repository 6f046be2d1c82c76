package auth

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"
)

// Probe periodically checks that the authorization server is reachable
// and records the result for the status API. It never influences an
// authorization decision; the attempt itself is authoritative.
type Probe struct {
	addr     string
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}

	mu        sync.RWMutex
	reachable bool
	lastCheck time.Time
}

// StartProbe begins probing host:port every interval (default 30s).
// Stop the returned Probe to shut it down.
func StartProbe(ctx context.Context, host string, port int, interval time.Duration) *Probe {
	if interval == 0 {
		interval = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(ctx)
	p := &Probe{
		addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		interval: interval,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		slog.Info("server probe started", "addr", p.addr, "interval", interval)
		for {
			p.check()
			select {
			case <-ctx.Done():
				slog.Info("server probe stopped")
				return
			case <-ticker.C:
			}
		}
	}()
	return p
}

func (p *Probe) check() {
	conn, err := net.DialTimeout("tcp", p.addr, 2*time.Second)
	reachable := err == nil
	if conn != nil {
		conn.Close()
	}
	if err != nil {
		slog.Debug("server probe failed", "addr", p.addr, "err", err)
	}

	p.mu.Lock()
	p.reachable = reachable
	p.lastCheck = time.Now()
	p.mu.Unlock()
}

// Reachable reports the last probe outcome and when it was taken.
func (p *Probe) Reachable() (bool, time.Time) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reachable, p.lastCheck
}

// Stop halts the probe and waits for the goroutine to exit.
func (p *Probe) Stop() {
	p.cancel()
	<-p.done
}
