// Package record implements the entry and epoch data model together with its
// canonical byte form and content identifiers.
package record

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hldb/welo-sub001/util/cidutil"
	"github.com/hldb/welo-sub001/util/crypto"
	"github.com/hldb/welo-sub001/util/slice"
)

var (
	// ErrStructural marks input that can't be decoded into a well-formed record
	ErrStructural = errors.New("malformed record")
	// ErrSignature marks a record whose signature does not verify against its author
	ErrSignature = errors.New("record has incorrect signature")
)

const (
	AuthorSize    = crypto.PubKeySize
	SignatureSize = crypto.SignatureSize
)

// AccessSnapshot is an immutable access policy carried by an epoch
type AccessSnapshot struct {
	// Protocol names the access controller implementation the snapshot is meant for
	Protocol string
	// Write lists the identities allowed to append
	Write []string
}

func (a *AccessSnapshot) Clone() *AccessSnapshot {
	if a == nil {
		return nil
	}
	return &AccessSnapshot{
		Protocol: a.Protocol,
		Write:    append([]string(nil), a.Write...),
	}
}

// Data is the signed part of a record
type Data struct {
	Clock   uint64
	Parents []string
	Payload []byte
	Access  *AccessSnapshot
}

// Record is either an entry or an epoch, epochs carry an access snapshot
type Record struct {
	Id        string
	EpochRefs []string
	Author    []byte
	Signature []byte
	Data      Data

	// Raw is the canonical encoding of the whole record
	Raw []byte
	// RawData is the canonical encoding of Data, the message covered by Signature
	RawData []byte
}

func (r *Record) IsEpoch() bool {
	return r.Data.Access != nil
}

// IsGenesis reports whether the record is an authorless epoch anchoring a replica
func (r *Record) IsGenesis() bool {
	return r.IsEpoch() && len(r.Author) == 0
}

func (r *Record) Clock() uint64 {
	return r.Data.Clock
}

func (r *Record) Parents() []string {
	return r.Data.Parents
}

// Refs returns the sorted union of parents and epoch refs
func (r *Record) Refs() []string {
	refs := make([]string, 0, len(r.Data.Parents)+len(r.EpochRefs))
	refs = append(refs, r.Data.Parents...)
	refs = append(refs, r.EpochRefs...)
	return slice.Dedup(refs)
}

// AuthorKey returns the author as an ed25519 public key
func (r *Record) AuthorKey() (crypto.PubKey, error) {
	return crypto.UnmarshalEd25519PublicKey(r.Author)
}

func (r *Record) Key() OrderKey {
	return OrderKey{Clock: r.Data.Clock, Id: r.Id}
}

func (r *Record) String() string {
	kind := "entry"
	if r.IsGenesis() {
		kind = "genesis"
	} else if r.IsEpoch() {
		kind = "epoch"
	}
	return fmt.Sprintf("%s(%s clock=%d parents=[%s])", kind, r.Id, r.Data.Clock, strings.Join(r.Data.Parents, ","))
}

// OrderKey is the materialization order of a record: clock first, then identifier
type OrderKey struct {
	Clock uint64
	Id    string
}

func (k OrderKey) Compare(o OrderKey) int {
	switch {
	case k.Clock < o.Clock:
		return -1
	case k.Clock > o.Clock:
		return 1
	}
	return strings.Compare(k.Id, o.Id)
}

func (k OrderKey) Less(o OrderKey) bool {
	return k.Compare(o) < 0
}

// IdentifierOf returns the content identifier of the record's canonical bytes
func IdentifierOf(r *Record) (string, error) {
	raw := r.Raw
	if raw == nil {
		var err error
		if raw, err = Encode(r); err != nil {
			return "", err
		}
	}
	return cidutil.NewCidFromBytes(raw)
}

func structuralf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStructural, fmt.Sprintf(format, args...))
}
