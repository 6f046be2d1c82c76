package auth

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"
)

// EncryptSubject selects which bytes get padded and encrypted: the
// canonical formatted string or the raw UID bytes. Like the encoding, it
// must match the server contract and is fixed by configuration.
type EncryptSubject int

const (
	// SubjectFormatted encrypts the formatted identifier string.
	SubjectFormatted EncryptSubject = iota
	// SubjectRaw encrypts the raw UID bytes.
	SubjectRaw
)

// ParseEncryptSubject maps a config string to an EncryptSubject.
func ParseEncryptSubject(s string) (EncryptSubject, error) {
	switch s {
	case "", "formatted":
		return SubjectFormatted, nil
	case "raw":
		return SubjectRaw, nil
	default:
		return 0, fmt.Errorf("unknown encrypt subject %q (want formatted or raw)", s)
	}
}

// DefaultTimeout is the bound on waiting for the first response byte.
const DefaultTimeout = 5000 * time.Millisecond

// DefaultDialTimeout bounds connection establishment.
const DefaultDialTimeout = 5 * time.Second

// Config holds everything one authorization attempt needs. All fields are
// fixed for the life of the process; the zero values of Timeout and
// DialTimeout select the defaults, a nil IVs selects SystemRand.
type Config struct {
	ServerAddress string
	ServerPort    int
	DeviceUUID    string

	// Key is the pre-shared AES-128 key. Empty disables encryption: the
	// formatted identifier goes on the wire as-is and no IV field is sent.
	Key []byte

	Encoding    UIDEncoding
	Subject     EncryptSubject
	IVs         IVSource
	Timeout     time.Duration
	DialTimeout time.Duration
}

// Client runs authorization attempts against the server. Each attempt
// opens one TCP connection, performs one request/response exchange and
// closes it; connections are never reused or shared.
type Client struct {
	cfg Config
}

// NewClient validates nothing beyond defaults; configuration is checked
// at load time.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.IVs == nil {
		cfg.IVs = SystemRand{}
	}
	return &Client{cfg: cfg}
}

// Result is the interpreted outcome of a completed exchange.
type Result struct {
	Authorized bool
	// Grantee is the response body (display name on success). Logging
	// only; it never alters the decision.
	Grantee string
}

// Authorize runs the full pipeline for one card presentation: format,
// optionally encrypt under a fresh IV, send, await the response under the
// deadline, interpret the status line. Any error maps to a denied
// decision at the caller; nothing is retried here. A later presentation
// starts an independent attempt.
func (c *Client) Authorize(ctx context.Context, uid []byte) (*Result, error) {
	req, err := c.buildRequest(uid)
	if err != nil {
		return nil, err
	}
	wire, err := req.MarshalWire(c.cfg.ServerAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	addr := net.JoinHostPort(c.cfg.ServerAddress, strconv.Itoa(c.cfg.ServerPort))
	slog.Debug("connecting to authorization server", "addr", addr)
	conn, err := net.DialTimeout("tcp", addr, c.cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	// Every path releases the connection; timeout expiry force-closes it.
	defer conn.Close()

	deadline := time.Now().Add(c.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)

	if _, err := conn.Write(wire); err != nil {
		return nil, fmt.Errorf("%w: send: %v", ErrConnect, err)
	}

	resp, err := ParseResponse(conn)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, c.cfg.Timeout)
		}
		if !errors.Is(err, ErrMalformed) {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return nil, err
	}

	slog.Info("authorization response",
		"status", resp.StatusLine,
		"authorized", resp.Authorized,
	)
	return &Result{Authorized: resp.Authorized, Grantee: resp.Body}, nil
}

// buildRequest formats the UID and applies the configured encryption
// variant. IV generation failure aborts the attempt; there is no
// fallback to a fixed IV.
func (c *Client) buildRequest(uid []byte) (Request, error) {
	req := Request{UUID: c.cfg.DeviceUUID}
	formatted := FormatUID(uid, c.cfg.Encoding)

	if len(c.cfg.Key) == 0 {
		req.Content = formatted
		return req, nil
	}

	iv, err := c.cfg.IVs.NewIV()
	if err != nil {
		return Request{}, err
	}
	subject := []byte(formatted)
	if c.cfg.Subject == SubjectRaw {
		subject = uid
	}
	ciphertext, err := Encrypt(c.cfg.Key, iv, subject)
	if err != nil {
		return Request{}, err
	}
	req.IV = hex.EncodeToString(iv)
	req.Content = hex.EncodeToString(ciphertext)
	return req, nil
}
