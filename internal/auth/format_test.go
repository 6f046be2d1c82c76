package auth

import "testing"

func TestFormatUIDHexUpper(t *testing.T) {
	uid := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	got := FormatUID(uid, EncodingHexUpper)
	if got != "DEADBEEF" {
		t.Errorf("FormatUID hex-upper = %q, want DEADBEEF", got)
	}
}

func TestFormatUIDHexLowerZeroPadding(t *testing.T) {
	uid := []byte{0x04, 0x0A, 0x00, 0xF1}
	got := FormatUID(uid, EncodingHexLower)
	if got != "040a00f1" {
		t.Errorf("FormatUID hex-lower = %q, want 040a00f1", got)
	}
}

func TestFormatUIDDecimalZeroPadding(t *testing.T) {
	uid := []byte{0, 7, 42, 255}
	got := FormatUID(uid, EncodingDecimal)
	if got != "000007042255" {
		t.Errorf("FormatUID decimal = %q, want 000007042255", got)
	}
}

func TestFormatUIDWidths(t *testing.T) {
	// Driver-reported UIDs are 4-10 bytes; output width is fixed per byte.
	for size := 4; size <= 10; size++ {
		uid := make([]byte, size)
		for i := range uid {
			uid[i] = byte(i * 17)
		}
		if got := len(FormatUID(uid, EncodingHexLower)); got != 2*size {
			t.Errorf("hex width for %d bytes = %d, want %d", size, got, 2*size)
		}
		if got := len(FormatUID(uid, EncodingDecimal)); got != 3*size {
			t.Errorf("decimal width for %d bytes = %d, want %d", size, got, 3*size)
		}
	}
}

func TestFormatUIDDeterministic(t *testing.T) {
	uid := []byte{0x1B, 0x9F, 0x00, 0x44, 0x7C}
	for _, enc := range []UIDEncoding{EncodingHexLower, EncodingHexUpper, EncodingDecimal} {
		a := FormatUID(uid, enc)
		b := FormatUID(uid, enc)
		if a != b {
			t.Errorf("FormatUID %s not deterministic: %q vs %q", enc, a, b)
		}
	}
}

func TestParseUIDEncoding(t *testing.T) {
	cases := []struct {
		in   string
		want UIDEncoding
		ok   bool
	}{
		{"", EncodingHexLower, true},
		{"hex-lower", EncodingHexLower, true},
		{"hex-upper", EncodingHexUpper, true},
		{"decimal", EncodingDecimal, true},
		{"base64", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseUIDEncoding(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("ParseUIDEncoding(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Errorf("ParseUIDEncoding(%q) accepted, want error", tc.in)
		}
	}
}
