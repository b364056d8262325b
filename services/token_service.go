// game-session-service/services/token_service.go
package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// GameTokenTTL bounds how long an issued token can be redeemed.
const GameTokenTTL = time.Hour

var (
	ErrTokenInvalidOrExpired = errors.New("game token is invalid or expired")
	ErrTokenUserMismatch     = errors.New("game token was issued to a different user")
	ErrBadSignature          = errors.New("payload signature mismatch")
)

// GameToken carries the verified claims of a play token.
type GameToken struct {
	UserID    string
	SessionID string
	StartTime time.Time
}

// TokenService mints and verifies the signed game tokens and the per-session
// challenge used to HMAC-sign the end-of-game payload.
//
// The challenge is never stored: it is re-derived as
// HMAC-SHA256(challengeSecret, sessionID), which keeps it unpredictable and
// distinct per session while letting verification stay stateless.
type TokenService struct {
	tokenSecret     []byte
	challengeSecret []byte
	ttl             time.Duration
	now             func() time.Time
}

func NewTokenService(tokenSecret, challengeSecret string) *TokenService {
	return &TokenService{
		tokenSecret:     []byte(tokenSecret),
		challengeSecret: []byte(challengeSecret),
		ttl:             GameTokenTTL,
		now:             time.Now,
	}
}

// IssueGameToken mints a fresh session id plus its signed token and challenge.
// Every call is a new attempt — idempotency is deliberately not provided.
func (s *TokenService) IssueGameToken(userID string) (token, challenge, sessionID string, err error) {
	sessionID = uuid.NewString()
	now := s.now().UTC()

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.tokenSecret)
	if err != nil {
		return "", "", "", fmt.Errorf("sign game token: %w", err)
	}
	return token, s.ChallengeFor(sessionID), sessionID, nil
}

// VerifyGameToken checks signature, expiry and user binding, and returns the
// embedded session identity. Verification is pure — no shared state.
func (s *TokenService) VerifyGameToken(tokenStr, expectedUserID string) (GameToken, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return s.tokenSecret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return GameToken{}, ErrTokenInvalidOrExpired
	}
	if claims.ID == "" || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return GameToken{}, ErrTokenInvalidOrExpired
	}
	if claims.Subject == "" || claims.Subject != expectedUserID {
		return GameToken{}, ErrTokenUserMismatch
	}
	return GameToken{
		UserID:    claims.Subject,
		SessionID: claims.ID,
		StartTime: claims.IssuedAt.Time.UTC(),
	}, nil
}

// ChallengeFor derives the per-session challenge handed out at game start.
func (s *TokenService) ChallengeFor(sessionID string) string {
	mac := hmac.New(sha256.New, s.challengeSecret)
	mac.Write([]byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignPayload computes the end-of-game signature the client is expected to
// send: HMAC-SHA256(challenge, "token|score|duration"). Duration is whole
// seconds so both sides render the base string identically.
func SignPayload(challenge, token string, score int, durationSec int64) string {
	mac := hmac.New(sha256.New, []byte(challenge))
	fmt.Fprintf(mac, "%s|%d|%d", token, score, durationSec)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPayloadSignature re-derives the challenge for the session and checks
// the submitted signature against the claimed score and duration.
func (s *TokenService) VerifyPayloadSignature(sessionID, token string, score int, durationSec int64, signature string) error {
	expected := SignPayload(s.ChallengeFor(sessionID), token, score, durationSec)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}
