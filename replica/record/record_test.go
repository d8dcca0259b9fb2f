package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/hldb/welo-sub001/util/cidutil"
)

func newGenesis(t *testing.T, writers ...string) *Record {
	g, err := BuildGenesis(AccessSnapshot{Protocol: "/welo/access/static", Write: writers}, nil)
	require.NoError(t, err)
	return g
}

func TestBuildDecode(t *testing.T) {
	keys := NewTestKeys()
	genesis := newGenesis(t, keys.Account("a"))
	require.True(t, genesis.IsGenesis())

	t.Run("genesis round trip", func(t *testing.T) {
		dec, err := Decode(genesis.Raw)
		require.NoError(t, err)
		assert.Equal(t, genesis.Id, dec.Id)
		assert.True(t, dec.IsGenesis())
		assert.Equal(t, genesis.Data.Access, dec.Data.Access)
		enc, err := Encode(dec)
		require.NoError(t, err)
		assert.Equal(t, genesis.Raw, enc)
	})
	t.Run("genesis is deterministic", func(t *testing.T) {
		again := newGenesis(t, keys.Account("a"))
		assert.Equal(t, genesis.Id, again.Id)
		other := newGenesis(t, keys.Account("b"))
		assert.NotEqual(t, genesis.Id, other.Id)
	})
	t.Run("entry round trip", func(t *testing.T) {
		first := MustBuild(BuilderContent{
			EpochRefs: []string{genesis.Id},
			Clock:     1,
			Payload:   []byte("one"),
			PrivKey:   keys.Key("a"),
		})
		second := MustBuild(BuilderContent{
			EpochRefs: []string{genesis.Id},
			Parents:   []string{first.Id},
			Clock:     2,
			Payload:   []byte("two"),
			PrivKey:   keys.Key("a"),
		})
		dec, err := Decode(second.Raw)
		require.NoError(t, err)
		assert.Equal(t, second.Id, dec.Id)
		assert.Equal(t, second.EpochRefs, dec.EpochRefs)
		assert.Equal(t, second.Author, dec.Author)
		assert.Equal(t, second.Signature, dec.Signature)
		assert.Equal(t, second.Data, dec.Data)
		assert.Equal(t, second.RawData, dec.RawData)
		assert.False(t, dec.IsEpoch())
		assert.Equal(t, []string{first.Id}, dec.Parents())
		assert.ElementsMatch(t, []string{first.Id, genesis.Id}, dec.Refs())

		id, err := IdentifierOf(dec)
		require.NoError(t, err)
		assert.Equal(t, second.Id, id)
		assert.True(t, cidutil.VerifyCid(second.Raw, second.Id))
	})
	t.Run("epoch round trip", func(t *testing.T) {
		epoch := MustBuild(BuilderContent{
			EpochRefs: []string{genesis.Id},
			Clock:     1,
			Access:    &AccessSnapshot{Protocol: "/welo/access/static", Write: []string{"*"}},
			PrivKey:   keys.Key("a"),
		})
		dec, err := Decode(epoch.Raw)
		require.NoError(t, err)
		assert.True(t, dec.IsEpoch())
		assert.False(t, dec.IsGenesis())
		assert.Equal(t, []string{"*"}, dec.Data.Access.Write)
	})
	t.Run("empty access snapshot stays an epoch", func(t *testing.T) {
		r := &Record{
			EpochRefs: []string{genesis.Id},
			Author:    make([]byte, AuthorSize),
			Signature: make([]byte, SignatureSize),
			Data:      Data{Access: &AccessSnapshot{Protocol: "p"}},
		}
		raw, err := Encode(r)
		require.NoError(t, err)
		dec, err := Decode(raw)
		require.NoError(t, err)
		assert.True(t, dec.IsEpoch())
	})
}

func TestIdentifierOf_Distinct(t *testing.T) {
	keys := NewTestKeys()
	genesis := newGenesis(t, "*")
	ids := map[string]struct{}{genesis.Id: {}}
	for i := 0; i < 200; i++ {
		r := MustBuild(BuilderContent{
			EpochRefs: []string{genesis.Id},
			Clock:     uint64(i),
			PrivKey:   keys.Key("a"),
		})
		_, exists := ids[r.Id]
		require.False(t, exists)
		ids[r.Id] = struct{}{}
	}
}

func TestDecode_Structural(t *testing.T) {
	keys := NewTestKeys()
	genesis := newGenesis(t, "*")
	genesisBin, err := cidutil.ToBinary(genesis.Id)
	require.NoError(t, err)
	entry := MustBuild(BuilderContent{
		EpochRefs: []string{genesis.Id},
		Clock:     3,
		Payload:   []byte("x"),
		PrivKey:   keys.Key("a"),
	})

	bytesField := func(b []byte, num protowire.Number, v []byte) []byte {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		return protowire.AppendBytes(b, v)
	}
	withData := func(b []byte) []byte {
		return bytesField(b, fieldData, entry.RawData)
	}

	tests := []struct {
		name string
		raw  []byte
	}{
		{"empty", nil},
		{"garbage", []byte{0xff, 0xff, 0xff}},
		{"no data", bytesField(bytesField(bytesField(nil, fieldEpochRefs, genesisBin), fieldAuthor, entry.Author), fieldSignature, entry.Signature)},
		{"no epoch refs", withData(bytesField(bytesField(nil, fieldAuthor, entry.Author), fieldSignature, entry.Signature))},
		{"short author", withData(bytesField(bytesField(bytesField(nil, fieldEpochRefs, genesisBin), fieldAuthor, entry.Author[:31]), fieldSignature, entry.Signature))},
		{"short signature", withData(bytesField(bytesField(bytesField(nil, fieldEpochRefs, genesisBin), fieldAuthor, entry.Author), fieldSignature, entry.Signature[:63]))},
		{"author without signature", withData(bytesField(bytesField(nil, fieldEpochRefs, genesisBin), fieldAuthor, entry.Author))},
		{"entry without author", withData(bytesField(nil, fieldEpochRefs, genesisBin))},
		{"malformed epoch ref", withData(bytesField(bytesField(bytesField(nil, fieldEpochRefs, []byte{1, 2, 3}), fieldAuthor, entry.Author), fieldSignature, entry.Signature))},
		{"out of order", bytesField(withData(bytesField(bytesField(nil, fieldEpochRefs, genesisBin), fieldAuthor, entry.Author)), fieldSignature, entry.Signature)},
		{"unknown field", bytesField(entry.Raw, 9, []byte("x"))},
		{"duplicate author", withData(bytesField(bytesField(bytesField(bytesField(nil, fieldEpochRefs, genesisBin), fieldAuthor, entry.Author), fieldAuthor, entry.Author), fieldSignature, entry.Signature))},
		{"duplicate epoch ref", withData(bytesField(bytesField(bytesField(bytesField(nil, fieldEpochRefs, genesisBin), fieldEpochRefs, genesisBin), fieldAuthor, entry.Author), fieldSignature, entry.Signature))},
		{"varint record field", protowire.AppendVarint(protowire.AppendTag(entry.Raw, 5, protowire.VarintType), 1)},
		{"trailing garbage", append(append([]byte{}, entry.Raw...), 0x0a)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrStructural)
		})
	}

	t.Run("non-minimal varint clock", func(t *testing.T) {
		// clock 3 encoded in two bytes
		data := protowire.AppendTag(nil, fieldClock, protowire.VarintType)
		data = append(data, 0x83, 0x00)
		data = bytesField(data, fieldPayload, []byte("x"))
		raw := bytesField(bytesField(bytesField(nil, fieldEpochRefs, genesisBin), fieldAuthor, entry.Author), fieldSignature, entry.Signature)
		raw = bytesField(raw, fieldData, data)
		_, err := Decode(raw)
		assert.ErrorIs(t, err, ErrStructural)
	})
	t.Run("well formed control", func(t *testing.T) {
		raw := withData(bytesField(bytesField(bytesField(nil, fieldEpochRefs, genesisBin), fieldAuthor, entry.Author), fieldSignature, entry.Signature))
		assert.Equal(t, entry.Raw, raw)
		_, err := Decode(raw)
		require.NoError(t, err)
	})
}

func TestEncode_Invalid(t *testing.T) {
	_, err := Encode(&Record{Data: Data{Clock: 1}})
	assert.ErrorIs(t, err, ErrStructural)
	_, err = Encode(&Record{EpochRefs: []string{"not a cid"}, Author: make([]byte, AuthorSize), Signature: make([]byte, SignatureSize)})
	assert.ErrorIs(t, err, ErrStructural)
	_, err = Encode(&Record{Data: Data{Access: &AccessSnapshot{}}})
	assert.ErrorIs(t, err, ErrStructural)
}

func TestOrderKey_Compare(t *testing.T) {
	assert.Equal(t, -1, OrderKey{Clock: 1, Id: "b"}.Compare(OrderKey{Clock: 2, Id: "a"}))
	assert.Equal(t, 1, OrderKey{Clock: 2, Id: "a"}.Compare(OrderKey{Clock: 1, Id: "b"}))
	assert.Equal(t, -1, OrderKey{Clock: 1, Id: "a"}.Compare(OrderKey{Clock: 1, Id: "b"}))
	assert.Equal(t, 0, OrderKey{Clock: 1, Id: "a"}.Compare(OrderKey{Clock: 1, Id: "a"}))
	assert.True(t, OrderKey{Clock: 0, Id: "z"}.Less(OrderKey{Clock: 1, Id: "a"}))
}
