package auth

import "errors"

// Every error the authorization pipeline can produce maps to a denied
// decision. The sentinels exist so callers can log and count the failure
// classes separately; none of them is retried at this layer.
var (
	// ErrConnect means the server could not be reached at all.
	ErrConnect = errors.New("server connection failed")

	// ErrTimeout means no response arrived within the response deadline.
	ErrTimeout = errors.New("response timeout")

	// ErrRNG means a fresh IV could not be drawn. There is no fallback
	// to a fixed IV; the attempt is aborted.
	ErrRNG = errors.New("iv generation failed")

	// ErrCipher means the encryption step failed.
	ErrCipher = errors.New("encryption failed")

	// ErrMalformed means the response carried no recognizable status line.
	ErrMalformed = errors.New("malformed response")
)

// DenyReason classifies an authorization error into a short stable token
// for the audit log.
func DenyReason(err error) string {
	switch {
	case err == nil:
		return "rejected"
	case errors.Is(err, ErrConnect):
		return "connection-failed"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrRNG):
		return "rng-failure"
	case errors.Is(err, ErrCipher):
		return "cipher-failure"
	case errors.Is(err, ErrMalformed):
		return "malformed-response"
	default:
		return "error"
	}
}
