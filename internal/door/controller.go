package door

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/OpelShniopel/doorctl/internal/audit"
	"github.com/OpelShniopel/doorctl/internal/auth"
)

// Authorizer decides whether a card UID may open the door. Satisfied by
// *auth.Client; tests inject fakes.
type Authorizer interface {
	Authorize(ctx context.Context, uid []byte) (*auth.Result, error)
}

// Controller owns the scan loop: wait for a card, run one authorization
// attempt, actuate the door, record the outcome. One attempt is in
// flight at a time; the loop never stops on a failed attempt.
type Controller struct {
	reader   Reader
	authz    Authorizer
	door     *Door
	ind      Indicator
	log      *audit.Log
	encoding auth.UIDEncoding
}

// NewController wires the scan loop. A nil indicator defaults to logging.
func NewController(reader Reader, authz Authorizer, d *Door, ind Indicator, log *audit.Log, enc auth.UIDEncoding) *Controller {
	if ind == nil {
		ind = LogIndicator{}
	}
	return &Controller{reader: reader, authz: authz, door: d, ind: ind, log: log, encoding: enc}
}

// Run blocks until the context is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	slog.Info("door controller running; waiting for cards")
	for {
		uid, err := c.reader.WaitForCard(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			slog.Warn("card read failed", "err", err)
			// Reader faults must not spin the loop hot.
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		c.HandleCard(ctx, uid)
	}
}

// HandleCard runs one authorization attempt for a presented card. Every
// failure class denies; nothing aborts the service.
func (c *Controller) HandleCard(ctx context.Context, uid []byte) {
	formatted := auth.FormatUID(uid, c.encoding)
	slog.Info("card presented", "uid", formatted)

	res, err := c.authz.Authorize(ctx, uid)
	switch {
	case err != nil:
		slog.Warn("authorization attempt failed", "uid", formatted, "err", err)
		c.ind.Denied()
		c.log.Record(audit.Entry{
			UID:      formatted,
			Decision: audit.DecisionDenied,
			Reason:   auth.DenyReason(err),
			Source:   "card",
		})
	case res.Authorized:
		slog.Info("access granted", "uid", formatted, "grantee", res.Grantee)
		c.ind.Granted()
		c.door.RequestOpen()
		c.log.Record(audit.Entry{
			UID:      formatted,
			Decision: audit.DecisionGranted,
			Grantee:  res.Grantee,
			Source:   "card",
		})
	default:
		slog.Info("access denied", "uid", formatted)
		c.ind.Denied()
		c.log.Record(audit.Entry{
			UID:      formatted,
			Decision: audit.DecisionDenied,
			Reason:   auth.DenyReason(nil),
			Source:   "card",
		})
	}
}

// Override opens the door without an authorization attempt, as the
// physical override button does. The event is recorded with its source.
func (c *Controller) Override(source string) {
	slog.Info("manual override", "source", source)
	c.door.RequestOpen()
	c.log.Record(audit.Entry{
		Decision: audit.DecisionOverride,
		Source:   source,
	})
}

// DoorState exposes the latch position for the status API.
func (c *Controller) DoorState() string {
	return c.door.State()
}
