package jwt

import (
	"testing"
	"time"

	jwtgo "github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(42, "ada@example.com", "Ada", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateAndGetClaims(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims["email"])
	assert.Equal(t, AccessTokenType, claims["type"])

	id, err := UserIDFromClaims(claims)
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	_, err := GenerateToken(1, "a@example.com", "A", "", time.Hour)
	assert.Error(t, err)
}

func TestValidateRejectsBadTokens(t *testing.T) {
	token, err := GenerateToken(1, "a@example.com", "A", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ValidateAndGetClaims(token, "other-secret")
	assert.Error(t, err, "wrong secret")

	_, err = ValidateAndGetClaims("not.a.token", testSecret)
	assert.Error(t, err, "garbage")

	expired := jwtgo.NewWithClaims(jwtgo.SigningMethodHS256, UserClaims{
		ID:   1,
		Type: AccessTokenType,
		StandardClaims: jwtgo.StandardClaims{
			ExpiresAt: time.Now().Add(-time.Minute).Unix(),
		},
	})
	signed, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = ValidateAndGetClaims(signed, testSecret)
	assert.Error(t, err, "expired")
}

func TestStateTokenIsNotAnAccessToken(t *testing.T) {
	state, err := GenerateStateToken(testSecret)
	require.NoError(t, err)
	require.NoError(t, VerifyStateToken(state, testSecret))

	_, err = ValidateAndGetClaims(state, testSecret)
	assert.Error(t, err)

	access, err := GenerateToken(1, "a@example.com", "A", testSecret, time.Hour)
	require.NoError(t, err)
	assert.Error(t, VerifyStateToken(access, testSecret))
}

func TestUserIDFromClaims(t *testing.T) {
	_, err := UserIDFromClaims(jwtgo.MapClaims{})
	assert.Error(t, err)

	_, err = UserIDFromClaims(jwtgo.MapClaims{"id": float64(0)})
	assert.Error(t, err)

	id, err := UserIDFromClaims(jwtgo.MapClaims{"id": float64(9)})
	require.NoError(t, err)
	assert.EqualValues(t, 9, id)
}
