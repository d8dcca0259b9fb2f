package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hldb/welo-sub001/util/crypto"
)

func TestEd25519_Verify(t *testing.T) {
	priv, pub, err := crypto.GenerateRandomEd25519KeyPair()
	require.NoError(t, err)
	author, err := pub.Raw()
	require.NoError(t, err)
	msg := []byte("message")
	sig, err := priv.Sign(msg)
	require.NoError(t, err)

	v := NewEd25519()
	ok, err := v.Verify(author, msg, sig)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.Verify(author, []byte("other"), sig)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = v.Verify(author, msg, sig[:10])
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = v.Verify(author[:5], msg, sig)
	assert.Error(t, err)
}
