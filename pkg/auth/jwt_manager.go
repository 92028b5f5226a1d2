package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Token verification outcomes. Verify returns exactly one of these on
// failure, so callers can switch over them.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// DefaultTokenTTL is how long a session token stays valid.
const DefaultTokenTTL = time.Hour

type JWTManager struct {
	secretKey     []byte
	method        jwt.SigningMethod
	tokenDuration time.Duration
	now           func() time.Time
}

// NewJWTManager builds a manager signing with the named HMAC algorithm
// (HS256, HS384 or HS512).
func NewJWTManager(secret, algorithm string, duration time.Duration) (*JWTManager, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if duration <= 0 {
		return nil, errors.New("token duration must be positive")
	}
	return &JWTManager{
		secretKey:     []byte(secret),
		method:        method,
		tokenDuration: duration,
		now:           time.Now,
	}, nil
}

// Generate creates a token for identity that expires after the configured
// duration.
func (m *JWTManager) Generate(identity string) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   identity,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
	}
	token := jwt.NewWithClaims(m.method, claims)
	return token.SignedString(m.secretKey)
}

// Verify checks signature, algorithm and expiry and returns the embedded
// identity. Tokens without a subject or expiry are invalid.
func (m *JWTManager) Verify(accessToken string) (string, error) {
	claims, err := m.parse(accessToken)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Expiry returns the absolute expiry of a valid token.
func (m *JWTManager) Expiry(accessToken string) (time.Time, error) {
	claims, err := m.parse(accessToken)
	if err != nil {
		return time.Time{}, err
	}
	return claims.ExpiresAt.Time, nil
}

func (m *JWTManager) parse(accessToken string) (*jwt.RegisteredClaims, error) {
	if accessToken == "" {
		return nil, ErrTokenInvalid
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{m.method.Alg()}))
	claims := &jwt.RegisteredClaims{}
	token, err := parser.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secretKey, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// classify folds jwt errors into the two outcomes callers care about. A
// token whose signature fails is invalid even when it is also expired.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}

// ExtractTokenFromHeader returns the bearer token of the Authorization header.
func ExtractTokenFromHeader(r *http.Request) (string, error) {
	hdr := r.Header.Get("Authorization")
	parts := strings.SplitN(hdr, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("invalid Authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
