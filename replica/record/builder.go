package record

import (
	"bytes"

	"github.com/hldb/welo-sub001/util/cidutil"
	"github.com/hldb/welo-sub001/util/crypto"
)

// BuilderContent describes a record to be signed by PrivKey
type BuilderContent struct {
	EpochRefs []string
	Parents   []string
	Clock     uint64
	Payload   []byte
	// Access makes the record an epoch
	Access  *AccessSnapshot
	PrivKey crypto.PrivKey
}

// Build signs the content and returns the decoded form of the resulting record
func Build(content BuilderContent) (*Record, error) {
	author, err := content.PrivKey.GetPublic().Raw()
	if err != nil {
		return nil, err
	}
	r := &Record{
		EpochRefs: content.EpochRefs,
		Author:    bytes.Clone(author),
		Data: Data{
			Clock:   content.Clock,
			Parents: content.Parents,
			Payload: content.Payload,
			Access:  content.Access.Clone(),
		},
	}
	if r.RawData, err = EncodeData(&r.Data); err != nil {
		return nil, err
	}
	if r.Signature, err = content.PrivKey.Sign(r.RawData); err != nil {
		return nil, err
	}
	return finish(r)
}

// BuildGenesis returns the authorless epoch anchoring a replica. The result
// depends only on the arguments, so every participant derives the same id.
func BuildGenesis(access AccessSnapshot, payload []byte) (*Record, error) {
	r := &Record{
		Data: Data{
			Payload: payload,
			Access:  access.Clone(),
		},
	}
	var err error
	if r.RawData, err = EncodeData(&r.Data); err != nil {
		return nil, err
	}
	return finish(r)
}

func finish(r *Record) (*Record, error) {
	var err error
	if r.Raw, err = Encode(r); err != nil {
		return nil, err
	}
	if r.Id, err = cidutil.NewCidFromBytes(r.Raw); err != nil {
		return nil, err
	}
	return r, nil
}
