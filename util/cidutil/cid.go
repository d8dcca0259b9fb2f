// Package cidutil computes and checks content identifiers of raw records.
package cidutil

import (
	"errors"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

var ErrNonCanonicalCid = errors.New("cid is not in canonical binary form")

// NewCid returns the identifier of data: CIDv1, raw codec, sha2-256
func NewCid(data []byte) (cid.Cid, error) {
	hash, err := mh.Sum(data, mh.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, hash), nil
}

func NewCidFromBytes(data []byte) (string, error) {
	c, err := NewCid(data)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

func VerifyCid(data []byte, id string) bool {
	c, err := NewCid(data)
	if err != nil {
		return false
	}
	return c.String() == id
}

// Parse decodes the string form of an identifier
func Parse(id string) (cid.Cid, error) {
	return cid.Decode(id)
}

// FromBinary decodes the binary form of an identifier and requires that
// re-encoding it gives back exactly the same bytes
func FromBinary(b []byte) (cid.Cid, error) {
	c, err := cid.Cast(b)
	if err != nil {
		return cid.Undef, err
	}
	if c.Version() != 1 || c.ByteLen() != len(b) {
		return cid.Undef, ErrNonCanonicalCid
	}
	return c, nil
}

// ToBinary converts the string form of an identifier into its binary form
func ToBinary(id string) ([]byte, error) {
	c, err := cid.Decode(id)
	if err != nil {
		return nil, err
	}
	return c.Bytes(), nil
}
