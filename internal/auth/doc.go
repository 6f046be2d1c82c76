// Package auth implements the authorization protocol client: it takes a
// raw card UID, formats it into the canonical text form, optionally
// encrypts it (AES-128-CBC with a fresh IV per attempt, PKCS#7 padding),
// sends it to the authorization server as a JSON-over-HTTP/1.1 request on
// a single-use TCP connection, and interprets the status line of the
// response into a boolean decision under a bounded wait.
//
// The design is fail-closed throughout: connection failure, timeout, RNG
// or cipher failure and unparseable responses all deny access. Nothing is
// retried at this layer; each card presentation is an independent
// attempt.
//
// The canonicalization variant (UIDEncoding plus EncryptSubject) must
// match what the server decrypts and compares against its stored
// identifiers. It is selected once at startup through configuration.
package auth
