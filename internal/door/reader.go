package door

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ebfe/scard"
)

// Reader produces one card UID per physical presentation. Implementations
// block until a card arrives or the context is cancelled.
type Reader interface {
	// WaitForCard blocks until a card is presented and returns its UID
	// (4-10 bytes). It does not return again until the card has been
	// removed, so one presentation yields exactly one attempt.
	WaitForCard(ctx context.Context) ([]byte, error)
	Close() error
}

const (
	minUIDLen = 4
	maxUIDLen = 10

	// statusPoll bounds each GetStatusChange wait so cancellation is
	// observed promptly.
	statusPoll = 500 * time.Millisecond
)

// getDataAPDU is the ISO 7816 GET DATA command that returns the card UID.
var getDataAPDU = []byte{0xFF, 0xCA, 0x00, 0x00, 0x00}

// PCSCReader reads card UIDs from a PC/SC reader.
type PCSCReader struct {
	ctx    *scard.Context
	reader string
}

// NewPCSCReader connects to the reader at the given index (0-based).
func NewPCSCReader(readerIndex int) (*PCSCReader, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establish PC/SC context: %w", err)
	}
	readers, err := ctx.ListReaders()
	if err != nil || len(readers) == 0 {
		ctx.Release()
		return nil, fmt.Errorf("no card readers found: %v", err)
	}
	if readerIndex < 0 || readerIndex >= len(readers) {
		ctx.Release()
		return nil, fmt.Errorf("reader index %d out of range (0..%d)", readerIndex, len(readers)-1)
	}
	slog.Info("card reader connected", "reader", readers[readerIndex])
	return &PCSCReader{ctx: ctx, reader: readers[readerIndex]}, nil
}

// WaitForCard implements Reader.
func (r *PCSCReader) WaitForCard(ctx context.Context) ([]byte, error) {
	if err := r.waitForState(ctx, scard.StateUnaware, scard.StatePresent); err != nil {
		return nil, err
	}

	card, err := r.ctx.Connect(r.reader, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		return nil, fmt.Errorf("connect to card: %w", err)
	}
	uid, err := readUID(card)
	card.Disconnect(scard.ResetCard)
	if err != nil {
		return nil, err
	}

	// Wait for removal so a card held on the reader is one attempt, not a
	// stream of them.
	if err := r.waitForState(ctx, scard.StatePresent, scard.StateEmpty); err != nil {
		return nil, err
	}
	return uid, nil
}

func readUID(card *scard.Card) ([]byte, error) {
	rsp, err := card.Transmit(getDataAPDU)
	if err != nil {
		return nil, fmt.Errorf("GET DATA: %w", err)
	}
	if len(rsp) < 2 {
		return nil, fmt.Errorf("GET DATA: short response (%d bytes)", len(rsp))
	}
	sw := uint16(rsp[len(rsp)-2])<<8 | uint16(rsp[len(rsp)-1])
	if sw != 0x9000 {
		return nil, fmt.Errorf("GET DATA failed with SW=0x%04X", sw)
	}
	uid := rsp[:len(rsp)-2]
	if len(uid) < minUIDLen || len(uid) > maxUIDLen {
		return nil, fmt.Errorf("unexpected UID length %d", len(uid))
	}
	return uid, nil
}

// waitForState polls GetStatusChange until the wanted state bit appears.
func (r *PCSCReader) waitForState(ctx context.Context, current, want scard.StateFlag) (err error) {
	rs := []scard.ReaderState{{Reader: r.reader, CurrentState: current}}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if rs[0].EventState&want != 0 {
			return nil
		}
		rs[0].CurrentState = rs[0].EventState
		if err := r.ctx.GetStatusChange(rs, statusPoll); err != nil && err != scard.ErrTimeout {
			return fmt.Errorf("reader status: %w", err)
		}
	}
}

// Close releases the PC/SC context.
func (r *PCSCReader) Close() error {
	return r.ctx.Release()
}
