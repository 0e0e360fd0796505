// Package token issues and verifies the credentials this app hands out:
// short-lived access JWTs, longer-lived refresh JWTs (separate secret), and
// one-shot tokens for email verification and password reset.
//
// The signing secrets and lifetimes are injected through Config so tests can
// supply deterministic values; nothing in this package reads process-wide
// state.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// oneShotBytes is the entropy of a one-shot token before hex encoding.
	oneShotBytes = 20

	// DefaultAccessTTL and friends apply when Config leaves a lifetime zero.
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 30 * 24 * time.Hour
	DefaultOneShotTTL = 20 * time.Minute
)

// ErrInvalidToken is returned for any token that fails verification:
// bad signature, malformed payload, or expired.
var ErrInvalidToken = errors.New("token is invalid or expired")

// Config holds the signing secrets and lifetimes for the service.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	OneShotTTL    time.Duration
}

// Service issues and verifies tokens.
type Service struct {
	cfg Config
}

// New returns a Service, filling in default lifetimes for zero values.
func New(cfg Config) *Service {
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.OneShotTTL == 0 {
		cfg.OneShotTTL = DefaultOneShotTTL
	}
	return &Service{cfg: cfg}
}

// AccessClaims are the claims embedded in an access token.
type AccessClaims struct {
	UserID   string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// RefreshClaims are the claims embedded in a refresh token. Only the user id
// is carried; everything else is re-resolved at refresh time.
type RefreshClaims struct {
	UserID string `json:"_id"`
	jwt.RegisteredClaims
}

// IssueAccessToken signs a short-lived token carrying the user's identity.
func (s *Service) IssueAccessToken(userID, username, email string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID:   userID,
		Username: username,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTTL)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(s.cfg.AccessSecret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// IssueRefreshToken signs a longer-lived token carrying only the user id.
func (s *Service) IssueRefreshToken(userID string) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.RefreshTTL)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(s.cfg.RefreshSecret))
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken parses and validates an access token.
// Returns ErrInvalidToken for any failure.
func (s *Service) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.verify(tokenString, claims, s.cfg.AccessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefreshToken parses and validates a refresh token.
// Returns ErrInvalidToken for any failure.
func (s *Service) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.verify(tokenString, claims, s.cfg.RefreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Service) verify(tokenString string, claims jwt.Claims, secret string) error {
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return ErrInvalidToken
	}
	return nil
}

// OneShotToken is a freshly generated verification/reset token pair.
// Plain goes into the email link and is never stored; Hashed and ExpiresAt
// are persisted on the user record.
type OneShotToken struct {
	Plain     string
	Hashed    string
	ExpiresAt time.Time
}

// NewOneShotToken generates a random one-shot token with this service's
// configured expiry window.
func (s *Service) NewOneShotToken() (OneShotToken, error) {
	b := make([]byte, oneShotBytes)
	if _, err := rand.Read(b); err != nil {
		return OneShotToken{}, fmt.Errorf("generate one-shot token: %w", err)
	}
	plain := hex.EncodeToString(b)
	return OneShotToken{
		Plain:     plain,
		Hashed:    HashOneShot(plain),
		ExpiresAt: time.Now().Add(s.cfg.OneShotTTL),
	}, nil
}

// HashOneShot returns the hex SHA-256 digest of a plain one-shot token.
// The same digest is used for storage and for lookup at validation time.
func HashOneShot(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// ValidateOneShotToken reports whether the presented plain value matches the
// stored hash (constant-time compare) and the stored expiry is still in the
// future. Both conditions are required.
func ValidateOneShotToken(plain, storedHash string, storedExpiry time.Time) bool {
	if storedHash == "" || !storedExpiry.After(time.Now()) {
		return false
	}
	presented := HashOneShot(plain)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(storedHash)) == 1
}
