// Package admintoken issues and validates the HS256 bearer tokens that guard
// operational endpoints such as catalog reload.
package admintoken

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/yanqian/faq-matcher/pkg/errors"
)

// CodeInvalidToken marks tokens that fail validation.
const CodeInvalidToken = "invalid_token"

const scopeAdmin = "faq:admin"

// Claims is the validated content of an admin token.
type Claims struct {
	Subject   string
	TokenID   string
	ExpiresAt time.Time
}

// Manager signs and verifies admin tokens with a shared secret.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewManager validates the secret and returns a Manager.
func NewManager(secret, issuer string, ttl time.Duration) (*Manager, error) {
	if len(strings.TrimSpace(secret)) < 16 {
		return nil, errors.New("admin token secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// Issue mints a token for subject. ttl <= 0 uses the manager default.
func (m *Manager) Issue(subject string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(subject) == "" {
		subject = "operator"
	}
	if ttl <= 0 {
		ttl = m.ttl
	}
	now := m.now()
	claims := tokenClaims{
		Scope: scopeAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", apperrors.Wrap("token_error", "failed to sign admin token", err)
	}
	return signed, nil
}

// Validate parses token and checks signature, issuer, expiry and scope.
func (m *Manager) Validate(token string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, apperrors.Wrap(CodeInvalidToken, "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, apperrors.Wrap(CodeInvalidToken, "token invalid", nil)
	}
	if claims.Scope != scopeAdmin {
		return Claims{}, apperrors.Wrap(CodeInvalidToken, "token lacks admin scope", nil)
	}
	return Claims{
		Subject:   claims.Subject,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
