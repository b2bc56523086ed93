package secrets_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptgate/promptgate/pkg/infra/secrets"
)

func testKey() string {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return base64.StdEncoding.EncodeToString(key)
}

func TestCipher_RoundTrip(t *testing.T) {
	c, err := secrets.NewCipher(testKey())
	require.NoError(t, err)

	encrypted, err := c.Encrypt("sk-live-abc123")
	require.NoError(t, err)
	assert.NotContains(t, encrypted, "sk-live")

	decrypted, err := c.Decrypt(encrypted)
	require.NoError(t, err)
	assert.Equal(t, "sk-live-abc123", decrypted)
}

func TestCipher_NoncesDiffer(t *testing.T) {
	c, err := secrets.NewCipher(testKey())
	require.NoError(t, err)

	first, err := c.Encrypt("same secret")
	require.NoError(t, err)
	second, err := c.Encrypt("same secret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestNewCipher_RejectsBadKeys(t *testing.T) {
	_, err := secrets.NewCipher("not base64 !!!")
	assert.Error(t, err)

	short := base64.StdEncoding.EncodeToString([]byte("too short"))
	_, err = secrets.NewCipher(short)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")
}

func TestCipher_DecryptRejectsTampering(t *testing.T) {
	c, err := secrets.NewCipher(testKey())
	require.NoError(t, err)

	encrypted, err := c.Encrypt("sk-live-abc123")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encrypted)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	_, err = c.Decrypt(tampered)
	assert.Error(t, err)

	_, err = c.Decrypt("AAAA")
	assert.Error(t, err)
}
