//go:generate mockgen -destination mock_blockstore/mock_blockstore.go github.com/hldb/welo-sub001/blockstore Store
package blockstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/hldb/welo-sub001/util/cidutil"
)

var (
	ErrNotFound     = errors.New("block not found")
	ErrInvalidBlock = errors.New("block data does not match its id")
)

// Store is content addressed storage for raw record bytes
type Store interface {
	// Get returns ErrNotFound when there is no block with the given id
	Get(ctx context.Context, id string) ([]byte, error)
	Has(ctx context.Context, id string) (bool, error)
	// Put checks that id is the identifier of data
	Put(ctx context.Context, id string, data []byte) error
}

func checkBlock(id string, data []byte) error {
	if !cidutil.VerifyCid(data, id) {
		return fmt.Errorf("%w: %s", ErrInvalidBlock, id)
	}
	return nil
}
