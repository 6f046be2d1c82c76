package door

import (
	"context"
	"testing"
	"time"

	"github.com/OpelShniopel/doorctl/internal/audit"
	"github.com/OpelShniopel/doorctl/internal/auth"
)

type fakeAuthorizer struct {
	res *auth.Result
	err error
}

func (f *fakeAuthorizer) Authorize(ctx context.Context, uid []byte) (*auth.Result, error) {
	return f.res, f.err
}

type fakeIndicator struct {
	granted, denied int
}

func (f *fakeIndicator) Granted() { f.granted++ }
func (f *fakeIndicator) Denied()  { f.denied++ }

func newTestController(t *testing.T, authz Authorizer) (*Controller, *fakeIndicator, *audit.Log) {
	t.Helper()
	log, err := audit.NewLog("", 0)
	if err != nil {
		t.Fatal(err)
	}
	ind := &fakeIndicator{}
	d := New(LogLatch{}, time.Millisecond, 10*time.Millisecond)
	c := NewController(nil, authz, d, ind, log, auth.EncodingHexLower)
	return c, ind, log
}

func TestHandleCardGranted(t *testing.T) {
	c, ind, log := newTestController(t, &fakeAuthorizer{res: &auth.Result{Authorized: true, Grantee: "Vardenis"}})

	c.HandleCard(context.Background(), []byte{0xDE, 0xAD, 0xBE, 0xEF})

	if ind.granted != 1 || ind.denied != 0 {
		t.Errorf("indicator granted=%d denied=%d", ind.granted, ind.denied)
	}
	if s := c.DoorState(); s == "closed" {
		t.Error("door not opened on granted decision")
	}
	recent := log.Recent(1)
	if len(recent) != 1 || recent[0].Decision != audit.DecisionGranted {
		t.Fatalf("audit entry = %+v", recent)
	}
	if recent[0].UID != "deadbeef" || recent[0].Grantee != "Vardenis" {
		t.Errorf("audit entry = %+v", recent[0])
	}
}

func TestHandleCardRejected(t *testing.T) {
	c, ind, log := newTestController(t, &fakeAuthorizer{res: &auth.Result{Authorized: false}})

	c.HandleCard(context.Background(), []byte{1, 2, 3, 4})

	if ind.denied != 1 {
		t.Errorf("denied signals = %d, want 1", ind.denied)
	}
	if s := c.DoorState(); s != "closed" {
		t.Errorf("door state = %q after denial", s)
	}
	recent := log.Recent(1)
	if recent[0].Decision != audit.DecisionDenied || recent[0].Reason != "rejected" {
		t.Errorf("audit entry = %+v", recent[0])
	}
}

func TestHandleCardFailureIsFailClosed(t *testing.T) {
	cases := []struct {
		err    error
		reason string
	}{
		{auth.ErrConnect, "connection-failed"},
		{auth.ErrTimeout, "timeout"},
		{auth.ErrRNG, "rng-failure"},
		{auth.ErrCipher, "cipher-failure"},
		{auth.ErrMalformed, "malformed-response"},
	}
	for _, tc := range cases {
		c, ind, log := newTestController(t, &fakeAuthorizer{err: tc.err})
		c.HandleCard(context.Background(), []byte{1, 2, 3, 4})
		if ind.denied != 1 || ind.granted != 0 {
			t.Errorf("%v: indicator granted=%d denied=%d", tc.err, ind.granted, ind.denied)
		}
		if s := c.DoorState(); s != "closed" {
			t.Errorf("%v: door state = %q", tc.err, s)
		}
		recent := log.Recent(1)
		if recent[0].Reason != tc.reason {
			t.Errorf("%v: audit reason = %q, want %q", tc.err, recent[0].Reason, tc.reason)
		}
	}
}

func TestOverrideOpensWithoutAuthorization(t *testing.T) {
	// The authorizer must never be consulted for an override.
	c, _, log := newTestController(t, &fakeAuthorizer{err: auth.ErrConnect})

	c.Override("api")

	if s := c.DoorState(); s == "closed" {
		t.Error("override did not open the door")
	}
	recent := log.Recent(1)
	if recent[0].Decision != audit.DecisionOverride || recent[0].Source != "api" {
		t.Errorf("audit entry = %+v", recent[0])
	}
}
