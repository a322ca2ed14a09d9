package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the cookie that carries the session token for browsers.
const CookieName = "simp_token"

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
	ErrRevokedToken = errors.New("token has been revoked")
)

// Claims identify the person a token was issued to. The registered ID claim
// is what logout revokes.
type Claims struct {
	PersonID int64  `json:"pid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 session tokens. With a sealer
// configured, the cookie form of a token is additionally encrypted.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	sealer *Sealer
	now    func() time.Time
}

// NewTokenManager creates a token manager. sealer may be nil, in which case
// cookies carry the plain token.
func NewTokenManager(secret string, ttl time.Duration, sealer *Sealer) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		sealer: sealer,
		now:    time.Now,
	}
}

func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for c.PersonID and c.Username. Registered claims are
// always replaced with a fresh id, issue time and expiry.
func (m *TokenManager) Issue(c Claims) (string, *Claims, error) {
	now := m.now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   strconv.FormatInt(c.PersonID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &c)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, &c, nil
}

// Verify parses and validates a token, returning its claims.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secret, nil
		},
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.PersonID == 0 || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// CookieValue returns the value to store in the session cookie.
func (m *TokenManager) CookieValue(token string) (string, error) {
	if m.sealer == nil {
		return token, nil
	}
	return m.sealer.Seal(token)
}

// VerifyCookie reverses CookieValue and verifies the token inside.
func (m *TokenManager) VerifyCookie(value string) (*Claims, error) {
	if value == "" {
		return nil, ErrMissingToken
	}
	token := value
	if m.sealer != nil {
		var err error
		if token, err = m.sealer.Open(value); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}
	return m.Verify(token)
}
