package intake

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// TokenState is the anti-forgery token bound to one session: the value the
// client must echo back, and the time it was handed out. Every response
// overwrites it, so a token matches at most once.
type TokenState struct {
	Token    string
	IssuedAt time.Time
}

// TokenVerdict is the outcome of checking a submitted token.
type TokenVerdict int

const (
	TokenOK TokenVerdict = iota
	// TokenMismatch: the supplied token is absent or not the session's token.
	TokenMismatch
	// TokenTooFast: the form came back quicker than a human could fill it.
	TokenTooFast
)

// TokenIssuer creates and checks per-session anti-forgery tokens. The
// minimum-fill window rejects submit-immediately bots that never render the
// form. Neither check is constant-time sensitive: no secret is being
// defended against timing measurement, the token space is simply too large
// to guess.
type TokenIssuer struct {
	minFill time.Duration
}

func NewTokenIssuer(minFill time.Duration) *TokenIssuer {
	return &TokenIssuer{minFill: minFill}
}

// Issue returns a fresh token state: 16 random bytes rendered as 32 hex
// characters, stamped with now.
func (i *TokenIssuer) Issue(now time.Time) (TokenState, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return TokenState{}, fmt.Errorf("generate token: %w", err)
	}
	return TokenState{Token: hex.EncodeToString(b), IssuedAt: now}, nil
}

// Validate compares the supplied token against the session's state and
// enforces the minimum fill time.
func (i *TokenIssuer) Validate(state TokenState, supplied string, now time.Time) TokenVerdict {
	if supplied == "" || state.Token == "" || supplied != state.Token {
		return TokenMismatch
	}
	if now.Sub(state.IssuedAt) < i.minFill {
		return TokenTooFast
	}
	return TokenOK
}
