package record

import (
	"fmt"

	"github.com/hldb/welo-sub001/util/crypto"
)

// TestKeys holds deterministic-by-name signing keys for tests of dependent packages
type TestKeys struct {
	keys map[string]crypto.PrivKey
}

func NewTestKeys() *TestKeys {
	return &TestKeys{keys: map[string]crypto.PrivKey{}}
}

func (k *TestKeys) Key(name string) crypto.PrivKey {
	if key, ok := k.keys[name]; ok {
		return key
	}
	key, _, err := crypto.GenerateRandomEd25519KeyPair()
	if err != nil {
		panic(fmt.Sprintf("generate key: %v", err))
	}
	k.keys[name] = key
	return key
}

func (k *TestKeys) Account(name string) string {
	return k.Key(name).GetPublic().Account()
}

// MustBuild is Build for tests, it panics on error
func MustBuild(content BuilderContent) *Record {
	r, err := Build(content)
	if err != nil {
		panic(err)
	}
	return r
}
