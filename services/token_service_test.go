package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestTokenService() *TokenService {
	return NewTokenService("test-token-secret", "test-challenge-secret")
}

func TestGameTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService()

	token, challenge, sessionID, err := svc.IssueGameToken("user-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		t.Errorf("session id is not a uuid: %q", sessionID)
	}
	if challenge != svc.ChallengeFor(sessionID) {
		t.Error("returned challenge does not match derivation")
	}

	claims, err := svc.VerifyGameToken(token, "user-1")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.UserID != "user-1" || claims.SessionID != sessionID {
		t.Errorf("claims mismatch: %+v", claims)
	}
	if time.Since(claims.StartTime) > time.Minute {
		t.Errorf("start time should be issuance time, got %v", claims.StartTime)
	}
}

func TestGameTokenUserMismatch(t *testing.T) {
	svc := newTestTokenService()
	token, _, _, _ := svc.IssueGameToken("user-1")
	if _, err := svc.VerifyGameToken(token, "user-2"); !errors.Is(err, ErrTokenUserMismatch) {
		t.Errorf("expected ErrTokenUserMismatch, got %v", err)
	}
}

func TestGameTokenTampering(t *testing.T) {
	svc := newTestTokenService()
	token, _, _, _ := svc.IssueGameToken("user-1")

	if _, err := svc.VerifyGameToken(token+"x", "user-1"); !errors.Is(err, ErrTokenInvalidOrExpired) {
		t.Errorf("tampered token: expected ErrTokenInvalidOrExpired, got %v", err)
	}
	if _, err := svc.VerifyGameToken("not-a-token", "user-1"); !errors.Is(err, ErrTokenInvalidOrExpired) {
		t.Errorf("garbage token: expected ErrTokenInvalidOrExpired, got %v", err)
	}

	other := NewTokenService("different-secret", "test-challenge-secret")
	if _, err := other.VerifyGameToken(token, "user-1"); !errors.Is(err, ErrTokenInvalidOrExpired) {
		t.Errorf("wrong key: expected ErrTokenInvalidOrExpired, got %v", err)
	}
}

func TestGameTokenExpiry(t *testing.T) {
	svc := newTestTokenService()
	token, _, _, _ := svc.IssueGameToken("user-1")

	svc.now = func() time.Time { return time.Now().Add(GameTokenTTL + time.Minute) }
	if _, err := svc.VerifyGameToken(token, "user-1"); !errors.Is(err, ErrTokenInvalidOrExpired) {
		t.Errorf("expected expiry, got %v", err)
	}
}

func TestChallengeDistinctPerSession(t *testing.T) {
	svc := newTestTokenService()
	a := svc.ChallengeFor("session-a")
	b := svc.ChallengeFor("session-b")
	if a == b {
		t.Error("challenges must be distinct per session")
	}
	if a != svc.ChallengeFor("session-a") {
		t.Error("challenge derivation must be deterministic")
	}
	if len(a) != 64 { // hex-encoded SHA-256
		t.Errorf("unexpected challenge length %d", len(a))
	}
}

func TestPayloadSignature(t *testing.T) {
	svc := newTestTokenService()
	token, challenge, sessionID, _ := svc.IssueGameToken("user-1")

	sig := SignPayload(challenge, token, 12, 45)
	if err := svc.VerifyPayloadSignature(sessionID, token, 12, 45, sig); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}

	if err := svc.VerifyPayloadSignature(sessionID, token, 13, 45, sig); !errors.Is(err, ErrBadSignature) {
		t.Errorf("tampered score: expected ErrBadSignature, got %v", err)
	}
	if err := svc.VerifyPayloadSignature(sessionID, token, 12, 46, sig); !errors.Is(err, ErrBadSignature) {
		t.Errorf("tampered duration: expected ErrBadSignature, got %v", err)
	}
	if err := svc.VerifyPayloadSignature("other-session", token, 12, 45, sig); !errors.Is(err, ErrBadSignature) {
		t.Errorf("wrong session: expected ErrBadSignature, got %v", err)
	}
}
