package auth

import (
	"bytes"
	"encoding/hex"
	"testing"
)

var (
	testKey = mustHex("000102030405060708090a0b0c0d0e0f")
	testIV  = mustHex("0f0e0d0c0b0a09080706050403020100")
)

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func TestPadRoundTrip(t *testing.T) {
	for size := 0; size <= 3*BlockSize; size++ {
		data := make([]byte, size)
		for i := range data {
			data[i] = byte(i + 1)
		}
		padded := pkcs7Pad(data)
		if len(padded) == 0 || len(padded)%BlockSize != 0 {
			t.Fatalf("padded length %d for input %d is not a positive multiple of %d", len(padded), size, BlockSize)
		}
		if len(padded) <= size {
			t.Fatalf("padding for input %d is empty", size)
		}
		out, err := pkcs7Unpad(padded)
		if err != nil {
			t.Fatalf("unpad failed for input %d: %v", size, err)
		}
		if !bytes.Equal(out, data) {
			t.Fatalf("round trip mismatch for input %d", size)
		}
	}
}

func TestPadAlignedInputGainsFullBlock(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, BlockSize)
	padded := pkcs7Pad(data)
	if len(padded) != 2*BlockSize {
		t.Fatalf("padded length = %d, want %d", len(padded), 2*BlockSize)
	}
	for _, b := range padded[BlockSize:] {
		if b != byte(BlockSize) {
			t.Fatalf("pad byte = 0x%02x, want 0x%02x", b, BlockSize)
		}
	}
}

func TestPadValueForEightByteInput(t *testing.T) {
	// The DEADBEEF fixture: 8 input bytes pad to 16 with 0x08 x 8.
	padded := pkcs7Pad([]byte("DEADBEEF"))
	if len(padded) != BlockSize {
		t.Fatalf("padded length = %d, want %d", len(padded), BlockSize)
	}
	for _, b := range padded[8:] {
		if b != 0x08 {
			t.Fatalf("pad byte = 0x%02x, want 0x08", b)
		}
	}
}

func TestUnpadRejectsBadPadding(t *testing.T) {
	cases := [][]byte{
		{},
		bytes.Repeat([]byte{0x00}, BlockSize),            // pad byte zero
		append(bytes.Repeat([]byte{1}, 15), 0x11),        // pad byte > block size
		append(bytes.Repeat([]byte{2}, 14), 0x01, 0x02),  // inconsistent run
		bytes.Repeat([]byte{0x5A}, BlockSize+1),          // not aligned
	}
	for i, c := range cases {
		if _, err := pkcs7Unpad(c); err == nil {
			t.Errorf("case %d: unpad accepted invalid padding", i)
		}
	}
}

func TestEncryptKnownVector(t *testing.T) {
	// Ground truth generated with OpenSSL AES-128-CBC + PKCS#7 under the
	// same key/IV. Keeping the formatted and raw variants pinned guards
	// the canonicalization contract with the server.
	cases := []struct {
		name      string
		plaintext []byte
		want      string
	}{
		{"formatted hex-upper", []byte("DEADBEEF"), "ae80d6f00c7c697ee0aa8a471c481a7b"},
		{"formatted hex-lower", []byte("deadbeef"), "1a98e930fd5f0684971f961f3a77a8fd"},
		{"raw uid bytes", []byte{0xDE, 0xAD, 0xBE, 0xEF}, "c594c64cf04df337e670ad7432dfc8ce"},
		{"block aligned input", []byte("0123456789abcdef"), "ff14dbe405cc0ee24d0de41289f0fc988680054fc9016bbf4f4067cd27826cdb"},
	}
	for _, tc := range cases {
		ct, err := Encrypt(testKey, testIV, tc.plaintext)
		if err != nil {
			t.Fatalf("%s: Encrypt failed: %v", tc.name, err)
		}
		if got := hex.EncodeToString(ct); got != tc.want {
			t.Errorf("%s: ciphertext = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plain := []byte("041b9f00447c")
	ct, err := Encrypt(testKey, testIV, plain)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if len(ct)%BlockSize != 0 {
		t.Fatalf("ciphertext length %d not block aligned", len(ct))
	}
	out, err := Decrypt(testKey, testIV, ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(out, plain) {
		t.Fatalf("round trip mismatch: %x", out)
	}
}

func TestEncryptDifferentIVsDifferentCiphertexts(t *testing.T) {
	plain := []byte("deadbeef")
	ivs := SystemRand{}
	iv1, err := ivs.NewIV()
	if err != nil {
		t.Fatal(err)
	}
	iv2, err := ivs.NewIV()
	if err != nil {
		t.Fatal(err)
	}
	ct1, err := Encrypt(testKey, iv1, plain)
	if err != nil {
		t.Fatal(err)
	}
	ct2, err := Encrypt(testKey, iv2, plain)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(ct1, ct2) {
		t.Fatal("same plaintext under two fresh IVs produced identical ciphertexts")
	}
}

func TestEncryptRejectsBadKey(t *testing.T) {
	if _, err := Encrypt([]byte("short"), testIV, []byte("x")); err == nil {
		t.Fatal("Encrypt accepted a bad key")
	}
	if _, err := Encrypt(testKey, []byte{1, 2, 3}, []byte("x")); err == nil {
		t.Fatal("Encrypt accepted a bad IV")
	}
}

func TestSystemRandIVsDoNotRepeat(t *testing.T) {
	ivs := SystemRand{}
	seen := make(map[string]bool, 1024)
	var prev []byte
	for i := 0; i < 1024; i++ {
		iv, err := ivs.NewIV()
		if err != nil {
			t.Fatalf("NewIV: %v", err)
		}
		if len(iv) != BlockSize {
			t.Fatalf("iv length = %d", len(iv))
		}
		if prev != nil && bytes.Equal(iv, prev) {
			t.Fatalf("consecutive IVs equal at draw %d", i)
		}
		key := string(iv)
		if seen[key] {
			t.Fatalf("repeated IV within %d draws", i)
		}
		seen[key] = true
		prev = iv
	}
}

func TestInsecurePRNGIVsDoNotRepeat(t *testing.T) {
	ivs := NewInsecurePRNG()
	var prev []byte
	for i := 0; i < 256; i++ {
		iv, err := ivs.NewIV()
		if err != nil {
			t.Fatalf("NewIV: %v", err)
		}
		if prev != nil && bytes.Equal(iv, prev) {
			t.Fatalf("consecutive IVs equal at draw %d", i)
		}
		prev = iv
	}
}
