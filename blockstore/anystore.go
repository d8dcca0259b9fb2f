package blockstore

import (
	"context"
	"errors"

	anystore "github.com/anyproto/any-store"
	"github.com/anyproto/any-store/anyenc"
)

const (
	collectionName = "blocks"
	idKey          = "id"
	dataKey        = "b"
)

// NewAnyStore opens (or creates) a persistent store at path
func NewAnyStore(ctx context.Context, path string) (*AnyStore, error) {
	db, err := anystore.Open(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	coll, err := db.Collection(ctx, collectionName)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &AnyStore{db: db, coll: coll}, nil
}

type AnyStore struct {
	db   anystore.DB
	coll anystore.Collection
}

func (s *AnyStore) Get(ctx context.Context, id string) ([]byte, error) {
	doc, err := s.coll.FindId(ctx, id)
	if err != nil {
		if errors.Is(err, anystore.ErrDocNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc.Value().GetBytes(dataKey), nil
}

func (s *AnyStore) Has(ctx context.Context, id string) (bool, error) {
	_, err := s.coll.FindId(ctx, id)
	if err != nil {
		if errors.Is(err, anystore.ErrDocNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *AnyStore) Put(ctx context.Context, id string, data []byte) error {
	if err := checkBlock(id, data); err != nil {
		return err
	}
	arena := &anyenc.Arena{}
	doc := arena.NewObject()
	doc.Set(idKey, arena.NewString(id))
	doc.Set(dataKey, arena.NewBinary(data))
	return s.coll.UpsertOne(ctx, doc)
}

func (s *AnyStore) Close() error {
	return s.db.Close()
}
