package blockstore

import (
	"context"

	bstore "github.com/ipfs/boxo/blockstore"
	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	format "github.com/ipfs/go-ipld-format"

	"github.com/hldb/welo-sub001/util/cidutil"
)

// NewInMemory returns a store backed by a map datastore
func NewInMemory() Store {
	return &memory{
		bs: bstore.NewBlockstore(dssync.MutexWrap(datastore.NewMapDatastore())),
	}
}

type memory struct {
	bs bstore.Blockstore
}

func (m *memory) Get(ctx context.Context, id string) ([]byte, error) {
	c, err := cidutil.Parse(id)
	if err != nil {
		return nil, err
	}
	b, err := m.bs.Get(ctx, c)
	if err != nil {
		if format.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b.RawData(), nil
}

func (m *memory) Has(ctx context.Context, id string) (bool, error) {
	c, err := cidutil.Parse(id)
	if err != nil {
		return false, err
	}
	return m.bs.Has(ctx, c)
}

func (m *memory) Put(ctx context.Context, id string, data []byte) error {
	if err := checkBlock(id, data); err != nil {
		return err
	}
	c, err := cidutil.Parse(id)
	if err != nil {
		return err
	}
	b, err := blocks.NewBlockWithCid(data, c)
	if err != nil {
		return err
	}
	return m.bs.Put(ctx, b)
}
