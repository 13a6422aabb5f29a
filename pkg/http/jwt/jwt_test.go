package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/atriumcrm/atrium/pkg/http"
	goJwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "bf284d03-ba65-42d4-a9fe-0d2fbfe61060"

func TestGenAndParseToken(t *testing.T) {
	principalId := "usr-1b8be82017ba"

	aToken, rToken, err := GenToken(principalId, []byte(testSecret), time.Hour, 7*24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, aToken)
	require.NotEmpty(t, rToken)

	claims, err := ParseToken(aToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, principalId, claims.PrincipalId)
	assert.Equal(t, "atrium", claims.Issuer)
}

func TestParseToken_Expired(t *testing.T) {
	aToken, _, err := GenToken("usr-1", []byte(testSecret), -time.Hour, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(aToken, testSecret)
	assert.True(t, errors.Is(err, goJwt.ErrTokenExpired))
}

func TestParseToken_WrongSecret(t *testing.T) {
	aToken, _, err := GenToken("usr-1", []byte(testSecret), time.Hour, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(aToken, "another-secret")
	assert.Error(t, err)
}

func TestRefreshToken(t *testing.T) {
	principalId := "usr-1"
	_, rToken, err := GenToken(principalId, []byte(testSecret), time.Hour, 2*time.Hour)
	require.NoError(t, err)

	auth := &http.Auth{
		SecretKey:     testSecret,
		AccessExpire:  time.Hour,
		RefreshExpire: 2 * time.Hour,
	}
	pair, err := RefreshToken(auth, principalId, rToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair["accessToken"])
	assert.NotEmpty(t, pair["refreshToken"])

	// 过期的刷新令牌应被拒绝
	_, expiredRefresh, err := GenToken(principalId, []byte(testSecret), time.Hour, -time.Hour)
	require.NoError(t, err)
	_, err = RefreshToken(auth, principalId, expiredRefresh)
	assert.Error(t, err)
}
