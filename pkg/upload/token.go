package upload

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

const tokenLogPrefix = "upload:token"

// ErrInvalidToken is returned for tokens that are malformed or not signed
// with the current secret.
var ErrInvalidToken = errors.New("invalid upload token")

// Signer issues and verifies upload tokens of the form "<uuid>.<mac>".
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer. An empty secret is replaced with a random one,
// so tokens do not survive a restart.
func NewSigner(secret []byte) *Signer {
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			panic(fmt.Sprintf("%s - no randomness available: %v", tokenLogPrefix, err))
		}
		slog.Warn(fmt.Sprintf("%s - no token secret configured, using an ephemeral one", tokenLogPrefix))
	}
	return &Signer{secret: secret}
}

// Issue returns a new signed token and the record id it carries.
func (s *Signer) Issue() (token, id string) {
	id = uuid.NewString()
	return s.Sign(id), id
}

// Sign returns the token of id.
func (s *Signer) Sign(id string) string {
	return id + "." + s.mac(id)
}

// Verify checks token and returns the record id it carries.
func (s *Signer) Verify(token string) (string, error) {
	id, sig, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || sig == "" {
		return "", ErrInvalidToken
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", ErrInvalidToken
	}
	if !hmac.Equal([]byte(sig), []byte(s.mac(id))) {
		return "", ErrInvalidToken
	}
	return id, nil
}

func (s *Signer) mac(id string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)[:18])
}
