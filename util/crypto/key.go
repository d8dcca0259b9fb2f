package crypto

import (
	"crypto/subtle"
	"errors"

	"github.com/libp2p/go-libp2p/core/crypto"
)

var ErrIncorrectKeyType = errors.New("incorrect key type")

// Key is an abstract interface for all types of keys
type Key interface {
	// Equals returns if the keys are equal
	Equals(Key) bool

	// Raw returns raw key
	Raw() ([]byte, error)
}

// PrivKey is an interface for keys that should be used for signing
type PrivKey interface {
	Key

	// Sign signs the raw bytes and returns the signature
	Sign([]byte) ([]byte, error)
	// GetPublic returns the associated public key
	GetPublic() PubKey
}

// PubKey is the public key used to verify the signatures
type PubKey interface {
	Key

	// Verify verifies the signed message and the signature
	Verify(data []byte, sig []byte) (bool, error)
	// Account returns the account address representation of the key
	Account() string
	// PeerId returns string representation for peer id
	PeerId() string
	// LibP2P returns libp2p model
	LibP2P() (crypto.PubKey, error)
}

func KeyEquals(k1, k2 Key) bool {
	a, err := k1.Raw()
	if err != nil {
		return false
	}
	b, err := k2.Raw()
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
