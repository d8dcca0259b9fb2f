package crypto

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SignVerify(t *testing.T) {
	privKey, pubKey, err := GenerateEd25519Key(rand.Reader)
	require.NoError(t, err)
	msg := make([]byte, 32000)
	_, err = rand.Read(msg)
	require.NoError(t, err)
	sign, err := privKey.Sign(msg)
	require.NoError(t, err)
	res, err := pubKey.Verify(msg, sign)
	require.NoError(t, err)
	require.True(t, res)

	msg[0] ^= 0xff
	res, err = pubKey.Verify(msg, sign)
	require.NoError(t, err)
	require.False(t, res)

	res, err = pubKey.Verify(msg, sign[:10])
	require.NoError(t, err)
	require.False(t, res)
}

func TestEd25519PubKey_Account(t *testing.T) {
	privKey, pubKey, err := GenerateRandomEd25519KeyPair()
	require.NoError(t, err)
	assert.True(t, privKey.GetPublic().Equals(pubKey))

	decoded, err := DecodeAccountAddress(pubKey.Account())
	require.NoError(t, err)
	assert.True(t, decoded.Equals(pubKey))
	assert.Equal(t, "A", pubKey.Account()[:1])
}

func TestEd25519PubKey_PeerId(t *testing.T) {
	_, pubKey, err := GenerateRandomEd25519KeyPair()
	require.NoError(t, err)
	peerId := pubKey.PeerId()
	require.NotEmpty(t, peerId)
	decoded, err := DecodePeerId(peerId)
	require.NoError(t, err)
	assert.True(t, decoded.Equals(pubKey))
}

func TestUnmarshalEd25519(t *testing.T) {
	_, err := UnmarshalEd25519PublicKey([]byte{1, 2, 3})
	require.Error(t, err)
	privKey, _, err := GenerateRandomEd25519KeyPair()
	require.NoError(t, err)
	raw, err := privKey.Raw()
	require.NoError(t, err)
	restored, err := UnmarshalEd25519PrivateKey(raw)
	require.NoError(t, err)
	assert.True(t, restored.Equals(privKey))
}
