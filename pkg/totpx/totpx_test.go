package totpx

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func genCode(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    Period,
		Skew:      Skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

func TestGenerateSecret(t *testing.T) {
	t.Parallel()

	a, err := GenerateSecret()
	require.NoError(t, err)
	b, err := GenerateSecret()
	require.NoError(t, err)

	require.Len(t, a, 32) // 20 bytes base32 without padding
	require.NotEqual(t, a, b)
	require.NotContains(t, a, "=")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	secret, err := GenerateSecret()
	require.NoError(t, err)

	t.Run("accepts current code", func(t *testing.T) {
		code := genCode(t, secret, time.Now().UTC())
		require.True(t, Validate(code, secret))
	})

	t.Run("accepts adjacent time steps", func(t *testing.T) {
		require.True(t, Validate(genCode(t, secret, time.Now().UTC().Add(-Period*time.Second)), secret))
		require.True(t, Validate(genCode(t, secret, time.Now().UTC().Add(Period*time.Second)), secret))
	})

	t.Run("rejects stale code", func(t *testing.T) {
		stale := genCode(t, secret, time.Now().UTC().Add(-10*Period*time.Second))
		require.False(t, Validate(stale, secret))
	})

	t.Run("strips whitespace", func(t *testing.T) {
		code := genCode(t, secret, time.Now().UTC())
		spaced := code[:3] + " " + code[3:]
		require.True(t, Validate(spaced, secret))
	})

	t.Run("non-numeric input fails closed", func(t *testing.T) {
		require.False(t, Validate("abc123", secret))
		require.False(t, Validate("", secret))
		require.False(t, Validate("   ", secret))
	})

	t.Run("rejects code for different secret", func(t *testing.T) {
		other, err := GenerateSecret()
		require.NoError(t, err)
		code := genCode(t, other, time.Now().UTC())
		require.False(t, Validate(code, secret))
	})
}

func TestProvisioningURI(t *testing.T) {
	t.Parallel()

	secret, err := GenerateSecret()
	require.NoError(t, err)

	uri := ProvisioningURI(secret, "alice@example.com", "Authd")

	key, err := otp.NewKeyFromURL(uri)
	require.NoError(t, err)
	require.Equal(t, secret, key.Secret())
	require.Equal(t, "Authd", key.Issuer())
	require.Equal(t, "alice@example.com", key.AccountName())
	require.Equal(t, "totp", key.Type())
}

func TestImage(t *testing.T) {
	t.Parallel()

	secret, err := GenerateSecret()
	require.NoError(t, err)
	uri := ProvisioningURI(secret, "alice@example.com", "Authd")

	data, err := Image(uri, 200)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 200, img.Bounds().Dx())
	require.Equal(t, 200, img.Bounds().Dy())
}

func TestImageRejectsBadURI(t *testing.T) {
	t.Parallel()

	_, err := Image("not-a-uri", 200)
	require.Error(t, err)
}
