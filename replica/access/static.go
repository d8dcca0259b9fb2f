package access

import (
	"fmt"

	"github.com/hldb/welo-sub001/replica/record"
	"github.com/hldb/welo-sub001/util/crypto"
)

const (
	StaticProtocol = "/welo/access/static"
	// Wildcard in the writer set grants access to every author
	Wildcard = "*"
)

// NewStatic returns the allow-list controller. Writers are account addresses
// as returned by crypto.PubKey.Account.
func NewStatic() Controller {
	return static{}
}

type static struct{}

func (static) Protocol() string {
	return StaticProtocol
}

func (static) ValidateConfig(snapshot *record.AccessSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: snapshot is missing", ErrConfig)
	}
	if snapshot.Protocol != StaticProtocol {
		return fmt.Errorf("%w: protocol %q is not %q", ErrConfig, snapshot.Protocol, StaticProtocol)
	}
	if len(snapshot.Write) == 0 {
		return fmt.Errorf("%w: writer set is empty", ErrConfig)
	}
	for _, w := range snapshot.Write {
		if w == Wildcard {
			continue
		}
		if _, err := crypto.DecodeAccountAddress(w); err != nil {
			return fmt.Errorf("%w: writer %q: %v", ErrConfig, w, err)
		}
	}
	return nil
}

func (static) CanAppend(r *record.Record, snapshot *record.AccessSnapshot) (bool, error) {
	if len(r.Author) == 0 {
		return false, nil
	}
	author, err := r.AuthorKey()
	if err != nil {
		return false, err
	}
	account := author.Account()
	for _, w := range snapshot.Write {
		if w == Wildcard || w == account {
			return true, nil
		}
	}
	return false, nil
}
