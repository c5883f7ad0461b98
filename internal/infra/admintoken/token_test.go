package admintoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/faq-matcher/pkg/errors"
)

const testSecret = "0123456789abcdef-secret"

func TestIssueAndValidate(t *testing.T) {
	m, err := NewManager(testSecret, "faq-matcher", time.Hour)
	require.NoError(t, err)

	token, err := m.Issue("alice", 0)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
	require.NotEmpty(t, claims.TokenID)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	m, err := NewManager(testSecret, "faq-matcher", time.Minute)
	require.NoError(t, err)
	token, err := m.Issue("alice", time.Minute)
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = m.Validate(token)
	require.True(t, apperrors.IsCode(err, CodeInvalidToken))
}

func TestValidateRejectsForeignTokens(t *testing.T) {
	m, err := NewManager(testSecret, "faq-matcher", time.Hour)
	require.NoError(t, err)

	other, err := NewManager("another-secret-of-length", "faq-matcher", time.Hour)
	require.NoError(t, err)
	foreign, err := other.Issue("mallory", 0)
	require.NoError(t, err)
	_, err = m.Validate(foreign)
	require.True(t, apperrors.IsCode(err, CodeInvalidToken))

	wrongIssuer, err := NewManager(testSecret, "someone-else", time.Hour)
	require.NoError(t, err)
	token, err := wrongIssuer.Issue("alice", 0)
	require.NoError(t, err)
	_, err = m.Validate(token)
	require.True(t, apperrors.IsCode(err, CodeInvalidToken))

	noScope, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "faq-matcher",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = m.Validate(noScope)
	require.True(t, apperrors.IsCode(err, CodeInvalidToken))

	_, err = m.Validate("not-a-jwt")
	require.True(t, apperrors.IsCode(err, CodeInvalidToken))
}

func TestNewManagerRequiresStrongSecret(t *testing.T) {
	_, err := NewManager("short", "faq-matcher", time.Hour)
	require.Error(t, err)
}
