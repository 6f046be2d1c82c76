package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	mrand "math/rand"
	"os"
	"sync"
	"time"
)

// BlockSize is the cipher block size; IVs and padded plaintexts are
// multiples of it.
const BlockSize = aes.BlockSize

// KeySize is the pre-shared key length (AES-128).
const KeySize = 16

// IVSource draws a fresh initialization vector per authorization attempt.
type IVSource interface {
	NewIV() ([]byte, error)
}

// SystemRand draws IVs from the operating system CSPRNG. This is the
// default tier.
type SystemRand struct{}

func (SystemRand) NewIV() ([]byte, error) {
	iv := make([]byte, BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRNG, err)
	}
	return iv, nil
}

// InsecurePRNG draws IVs from a seeded software PRNG. It exists only for
// compatibility testing against firmware builds that seed from analog
// noise; it is a known weak mode, not equivalent security. Selecting it
// logs a warning, once at construction and the tier is visible in the
// startup log.
type InsecurePRNG struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewInsecurePRNG seeds the weak tier from the clock and process identity.
func NewInsecurePRNG() *InsecurePRNG {
	seed := time.Now().UnixNano() ^ int64(os.Getpid())<<32
	slog.Warn("using insecure PRNG for IV generation; this tier is for firmware compatibility testing only")
	return &InsecurePRNG{rng: mrand.New(mrand.NewSource(seed))}
}

func (p *InsecurePRNG) NewIV() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	iv := make([]byte, BlockSize)
	for i := range iv {
		iv[i] = byte(p.rng.Intn(256))
	}
	return iv, nil
}

// pkcs7Pad appends PKCS#7 padding up to the next block boundary. Input
// that is already block aligned gains a full extra block, so padding is
// never empty and the server-side unpad is unambiguous.
func pkcs7Pad(data []byte) []byte {
	padLen := BlockSize - len(data)%BlockSize
	out := make([]byte, len(data)+padLen)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(padLen)
	}
	return out
}

// pkcs7Unpad reverses pkcs7Pad. The client never decrypts on the live
// path; this mirrors the server's operation for the round-trip tests.
func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%BlockSize != 0 {
		return nil, fmt.Errorf("unpad: length %d not block aligned", len(data))
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > BlockSize || padLen > len(data) {
		return nil, fmt.Errorf("unpad: bad pad byte 0x%02x", data[len(data)-1])
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("unpad: inconsistent padding")
		}
	}
	return data[:len(data)-padLen], nil
}

// Encrypt pads the plaintext and runs one AES-128-CBC pass under the
// given key and IV. The output length is a positive multiple of BlockSize.
func Encrypt(key, iv, plaintext []byte) ([]byte, error) {
	if len(iv) != BlockSize {
		return nil, fmt.Errorf("%w: iv must be %d bytes, got %d", ErrCipher, BlockSize, len(iv))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCipher, err)
	}
	padded := pkcs7Pad(plaintext)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

// Decrypt reverses Encrypt. Test support; the authorization path never
// decrypts.
func Decrypt(key, iv, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d not block aligned", ErrCipher, len(ciphertext))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCipher, err)
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return pkcs7Unpad(out)
}
