package auth

import (
	"encoding/json"
	"fmt"
)

// Request is the JSON body of one authorization attempt. Field order on
// the wire follows the struct: device UUID, optional IV, content. The
// content is either the formatted identifier (plaintext variant) or hex
// ciphertext; the IV field is present only when encryption is enabled.
type Request struct {
	UUID    string `json:"UUID"`
	IV      string `json:"iv,omitempty"`
	Content string `json:"content"`
}

// MarshalWire renders the full HTTP/1.1 request text for one attempt:
// POST to /, JSON body, Connection: close. The connection carries exactly
// this one exchange.
func (r Request) MarshalWire(host string) ([]byte, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	head := fmt.Sprintf("POST / HTTP/1.1\r\n"+
		"Host: %s\r\n"+
		"Content-Type: application/json\r\n"+
		"Content-Length: %d\r\n"+
		"Connection: close\r\n"+
		"\r\n", host, len(body))
	return append([]byte(head), body...), nil
}
