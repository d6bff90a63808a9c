package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyberGRX/neobolt/internal/bolt"
)

func TestValidateMagic(t *testing.T) {
	assert.True(t, ValidateMagic(bolt.Magic[:]))
	assert.False(t, ValidateMagic([]byte{0x00, 0x00, 0x00, 0x00}))
	assert.False(t, ValidateMagic([]byte{0x60, 0x60}))
}

func TestValidateHandshake(t *testing.T) {
	agreed, err := ValidateHandshake([]byte{0x00, 0x00, 0x00, 0x03})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x03}, agreed)

	_, err = ValidateHandshake([]byte{0x00, 0x00, 0x00, 0x00})
	assert.ErrorIs(t, err, errHandshakeRejected)

	_, err = ValidateHandshake([]byte{0x00, 0x00})
	assert.ErrorIs(t, err, errHandshakeShort)
}
