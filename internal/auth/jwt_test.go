package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func TestNewTokenAndParse(t *testing.T) {
	token, err := NewToken("user-123", "admin", testSecret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
}

func TestParseToken_Rejections(t *testing.T) {
	token, err := NewToken("user-123", "operator", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("", testSecret)
	assert.ErrorIs(t, err, ErrEmptyToken)

	_, err = ParseToken(token, nil)
	assert.ErrorIs(t, err, ErrEmptySecret)

	_, err = ParseToken(token, []byte("wrong-secret"))
	assert.Error(t, err)

	_, err = ParseToken("not.a.token", testSecret)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	token, err := NewToken("user-123", "operator", testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret)
	assert.Error(t, err)
}

func TestParseToken_MissingSubject(t *testing.T) {
	claims := &Claims{Role: "admin"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_RejectsNonHMAC(t *testing.T) {
	// alg=none style tokens must never pass
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-123"},
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseToken(signed, testSecret)
	assert.Error(t, err)
}
