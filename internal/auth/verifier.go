// Package auth implements HS256 bearer token verification for the
// orientation JSON-RPC endpoint.
//
// Tokens carry a subject and a list of scopes. Reads need ScopeRead,
// constraint writes need ScopeWrite.
package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Scope constants
const (
	ScopeRead  = "orientation:read"
	ScopeWrite = "orientation:write"
)

// Claims represents the parsed token claims.
type Claims struct {
	Subject string   `json:"sub"`
	Scopes  []string `json:"scopes"`
}

// HasScope reports whether the claims grant scope.
func (c *Claims) HasScope(scope string) bool {
	if c == nil {
		return false
	}
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Verifier checks HS256-signed tokens against a shared secret.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a new JWT verifier.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("HS256 requires secret key")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// VerifyToken verifies a JWT token and returns the claims.
func (v *Verifier) VerifyToken(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	claims, ok := token.Claims.(*jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return extractClaims(claims)
}

// Sign issues a token for subject with the given scopes. Used by tooling
// and tests; the daemon itself only verifies.
func (v *Verifier) Sign(subject string, scopes []string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    subject,
		"scopes": scopes,
	})
	return token.SignedString(v.secret)
}

func extractClaims(claims *jwt.MapClaims) (*Claims, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("missing or invalid 'sub' claim")
	}

	scopes, err := extractStringSlice(claims, "scopes")
	if err != nil {
		return nil, fmt.Errorf("missing or invalid 'scopes' claim: %w", err)
	}

	return &Claims{
		Subject: sub,
		Scopes:  scopes,
	}, nil
}

// extractStringSlice extracts a string slice from claims.
func extractStringSlice(claims *jwt.MapClaims, key string) ([]string, error) {
	value, ok := (*claims)[key]
	if !ok {
		return nil, fmt.Errorf("missing claim: %s", key)
	}

	switch val := value.(type) {
	case []string:
		return val, nil
	case []interface{}:
		result := make([]string, len(val))
		for i, item := range val {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("invalid %s claim: not a string", key)
			}
			result[i] = str
		}
		return result, nil
	default:
		return nil, fmt.Errorf("invalid %s claim: not a string array", key)
	}
}
