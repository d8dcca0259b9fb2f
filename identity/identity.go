//go:generate mockgen -destination mock_identity/mock_identity.go github.com/hldb/welo-sub001/identity Verifier
package identity

import (
	"github.com/hldb/welo-sub001/util/crypto"
)

// Verifier checks a signature made by the holder of the author key
type Verifier interface {
	Verify(author, msg, sig []byte) (bool, error)
}

// NewEd25519 returns a verifier for raw 32-byte ed25519 author keys
func NewEd25519() Verifier {
	return ed25519Verifier{}
}

type ed25519Verifier struct{}

func (ed25519Verifier) Verify(author, msg, sig []byte) (bool, error) {
	key, err := crypto.UnmarshalEd25519PublicKey(author)
	if err != nil {
		return false, err
	}
	return key.Verify(msg, sig)
}
