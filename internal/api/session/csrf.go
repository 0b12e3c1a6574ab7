package session

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidCSRF = errors.New("invalid csrf token")

type csrfClaims struct {
	Nonce string `json:"nonce"`
	jwt.RegisteredClaims
}

// CSRFSigner mints HS256 tokens carrying a session nonce.
type CSRFSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewCSRFSigner(key []byte, ttl time.Duration) *CSRFSigner {
	return &CSRFSigner{key: key, ttl: ttl, now: time.Now}
}

func (s *CSRFSigner) Mint(nonce string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, csrfClaims{
		Nonce: nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign csrf token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, the expiry and that the token belongs to nonce.
func (s *CSRFSigner) Verify(token, nonce string) error {
	if token == "" || nonce == "" {
		return ErrInvalidCSRF
	}
	claims := &csrfClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return ErrInvalidCSRF
	}
	if subtle.ConstantTimeCompare([]byte(claims.Nonce), []byte(nonce)) != 1 {
		return ErrInvalidCSRF
	}
	return nil
}
