package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gwi.com/beauty-box/internal/config"
)

func withSecret(t *testing.T, secret string) {
	t.Helper()
	prev := config.AppConfig
	config.AppConfig.JWTSecret = secret
	t.Cleanup(func() { config.AppConfig = prev })
}

func TestSessionTokenRoundTrip(t *testing.T) {
	withSecret(t, "test-secret")

	token, err := GenerateSessionToken("session-123")
	require.NoError(t, err)

	sub, err := ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "session-123", sub)
}

func TestValidateSessionTokenRejects(t *testing.T) {
	withSecret(t, "test-secret")

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key interface{}) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := jwt.RegisteredClaims{
		Subject:   "s",
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	noSubject := valid
	noSubject.Subject = ""
	otherIssuer := valid
	otherIssuer.Issuer = "someone-else"

	tests := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": sign(valid, jwt.SigningMethodHS256, []byte("other-secret")),
		"expired":      sign(expired, jwt.SigningMethodHS256, []byte("test-secret")),
		"no subject":   sign(noSubject, jwt.SigningMethodHS256, []byte("test-secret")),
		"other issuer": sign(otherIssuer, jwt.SigningMethodHS256, []byte("test-secret")),
		"none alg":     sign(valid, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateSessionToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
