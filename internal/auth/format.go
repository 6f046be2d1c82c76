package auth

import (
	"fmt"
	"strings"
)

// UIDEncoding selects the canonical text form of a card UID. The server
// matches identifiers by exact string comparison, so the encoding chosen
// here must match what the server stores. It is fixed by configuration
// for the life of the process.
type UIDEncoding int

const (
	// EncodingHexLower renders each byte as two lowercase hex chars.
	EncodingHexLower UIDEncoding = iota
	// EncodingHexUpper renders each byte as two uppercase hex chars.
	EncodingHexUpper
	// EncodingDecimal renders each byte as three zero-padded decimal digits.
	EncodingDecimal
)

// ParseUIDEncoding maps a config string to a UIDEncoding.
func ParseUIDEncoding(s string) (UIDEncoding, error) {
	switch strings.ToLower(s) {
	case "", "hex-lower":
		return EncodingHexLower, nil
	case "hex-upper":
		return EncodingHexUpper, nil
	case "decimal":
		return EncodingDecimal, nil
	default:
		return 0, fmt.Errorf("unknown uid encoding %q (want hex-lower, hex-upper or decimal)", s)
	}
}

func (e UIDEncoding) String() string {
	switch e {
	case EncodingHexUpper:
		return "hex-upper"
	case EncodingDecimal:
		return "decimal"
	default:
		return "hex-lower"
	}
}

// FormatUID converts raw UID bytes into the canonical text form. Output is
// a pure function of the input and encoding: fixed-width groups per byte,
// zero-padded, no separators.
func FormatUID(uid []byte, enc UIDEncoding) string {
	var b strings.Builder
	for _, c := range uid {
		switch enc {
		case EncodingHexUpper:
			fmt.Fprintf(&b, "%02X", c)
		case EncodingDecimal:
			fmt.Fprintf(&b, "%03d", c)
		default:
			fmt.Fprintf(&b, "%02x", c)
		}
	}
	return b.String()
}
