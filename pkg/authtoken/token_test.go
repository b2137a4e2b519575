package authtoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_AudienceAndCompany(t *testing.T) {
	now := time.Unix(1700000000, 0)

	tok, err := Sign("company-1", "user-9", "bizfinance", "test_secret", now, 10*time.Minute)
	require.NoError(t, err)

	got, err := Verify(tok, "bizfinance", "test_secret", now)
	require.NoError(t, err)
	assert.Equal(t, "company-1", got.CompanyID)
	assert.Equal(t, "user-9", got.UserID)
	assert.Equal(t, now.Add(10*time.Minute).Unix(), got.ExpiresAt.Unix())
}

func TestVerify_Rejects(t *testing.T) {
	now := time.Unix(1700000000, 0)

	expired, err := Sign("company-1", "", "", "s", now.Add(-time.Hour), time.Minute)
	require.NoError(t, err)
	_, err = Verify(expired, "", "s", now)
	assert.Error(t, err)

	wrongAud, err := Sign("company-1", "", "other-app", "s", now, time.Minute)
	require.NoError(t, err)
	_, err = Verify(wrongAud, "bizfinance", "s", now)
	assert.Error(t, err)

	badSig, err := Sign("company-1", "", "", "s", now, time.Minute)
	require.NoError(t, err)
	_, err = Verify(badSig, "", "other", now)
	assert.Error(t, err)

	noCompany, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute))},
	}).SignedString([]byte("s"))
	require.NoError(t, err)
	_, err = Verify(noCompany, "", "s", now)
	assert.ErrorIs(t, err, ErrMissingCompany)

	_, err = Verify("", "", "s", now)
	assert.ErrorIs(t, err, ErrMissingToken)
	_, err = Verify(badSig, "", "", now)
	assert.ErrorIs(t, err, ErrMissingSecret)
}
