package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const statusLinePrefix = "HTTP/1.1"
const successToken = "200"

// Response is the interpreted server reply. Authorized is derived from
// the status line alone; Body is surfaced for logging (grantee display
// name on success) and never changes the decision.
type Response struct {
	Authorized bool
	StatusLine string
	Body       string
}

// ParseResponse classifies a raw response stream. The first line carrying
// the status-line prefix decides authorization: success iff the success
// code token appears in it. Subsequent lines up to the first empty line
// are headers and are discarded; everything after is drained fully as the
// body so no unread bytes are left on a connection about to close.
//
// Absence of a status line is never success: a stream that ends before a
// status line, or before the header section terminates, yields
// ErrMalformed and a negative decision.
func ParseResponse(r io.Reader) (*Response, error) {
	br := bufio.NewReader(r)
	resp := &Response{}
	seenStatus := false
	terminated := false

	for {
		line, err := br.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if !seenStatus && strings.HasPrefix(trimmed, statusLinePrefix) {
			seenStatus = true
			resp.StatusLine = trimmed
			resp.Authorized = strings.Contains(trimmed, successToken)
		} else if trimmed == "" && line != "" {
			// Blank line: end of headers.
			terminated = true
			break
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read response: %w", err)
		}
	}

	if !seenStatus {
		return nil, fmt.Errorf("%w: no status line before end of stream", ErrMalformed)
	}
	if !terminated {
		return nil, fmt.Errorf("%w: header section not terminated", ErrMalformed)
	}

	body, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("%w: draining body: %v", ErrMalformed, err)
	}
	resp.Body = strings.TrimSpace(string(body))
	return resp, nil
}
