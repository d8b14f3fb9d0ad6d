package lounge

import (
	"errors"
	"testing"
	"time"
)

func TestVerifyOrIssueMintsNewIdentity(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute)

	token, err := m.VerifyOrIssue("")
	if err != nil {
		t.Fatalf("VerifyOrIssue failed: %v", err)
	}
	if token == "" {
		t.Fatal("VerifyOrIssue returned an empty token")
	}

	id, err := m.Verify(token)
	if err != nil {
		t.Fatalf("freshly issued token did not verify: %v", err)
	}
	if id == "" {
		t.Error("verified token carries an empty id")
	}
}

func TestVerifyOrIssueRenewalKeepsID(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute)

	first, err := m.VerifyOrIssue("")
	if err != nil {
		t.Fatalf("VerifyOrIssue failed: %v", err)
	}
	firstID, err := m.Verify(first)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	renewed, err := m.VerifyOrIssue(first)
	if err != nil {
		t.Fatalf("renewal failed: %v", err)
	}
	renewedID, err := m.Verify(renewed)
	if err != nil {
		t.Fatalf("Verify of renewed token failed: %v", err)
	}

	if renewedID != firstID {
		t.Errorf("renewal changed the identity: got %q, want %q", renewedID, firstID)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute)

	if _, err := m.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify(garbage) = %v, want ErrInvalidToken", err)
	}
	if _, err := m.Verify(""); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify(empty) = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	issuer := NewTokenManager("secret-one", time.Minute)
	verifier := NewTokenManager("secret-two", time.Minute)

	token, err := issuer.VerifyOrIssue("")
	if err != nil {
		t.Fatalf("VerifyOrIssue failed: %v", err)
	}

	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify with wrong secret = %v, want ErrInvalidToken", err)
	}
}

func TestExpiredTokenDegradesToNewIdentity(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute)
	base := time.Now()
	m.now = func() time.Time { return base }

	token, err := m.VerifyOrIssue("")
	if err != nil {
		t.Fatalf("VerifyOrIssue failed: %v", err)
	}
	oldID, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	m.now = func() time.Time { return base.Add(2 * time.Minute) }

	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Verify of expired token = %v, want ErrInvalidToken", err)
	}

	reissued, err := m.VerifyOrIssue(token)
	if err != nil {
		t.Fatalf("VerifyOrIssue after expiry failed: %v", err)
	}
	newID, err := m.Verify(reissued)
	if err != nil {
		t.Fatalf("Verify of reissued token failed: %v", err)
	}
	if newID == oldID {
		t.Error("expired token kept its identity; expected a fresh anonymous id")
	}
}
