package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hldb/welo-sub001/replica/record"
)

func TestStatic_ValidateConfig(t *testing.T) {
	keys := record.NewTestKeys()
	ctrl := NewStatic()
	tests := []struct {
		name     string
		snapshot *record.AccessSnapshot
		valid    bool
	}{
		{"nil", nil, false},
		{"empty", &record.AccessSnapshot{Protocol: StaticProtocol}, false},
		{"wrong protocol", &record.AccessSnapshot{Protocol: "/other", Write: []string{Wildcard}}, false},
		{"bad writer", &record.AccessSnapshot{Protocol: StaticProtocol, Write: []string{"alice"}}, false},
		{"wildcard", &record.AccessSnapshot{Protocol: StaticProtocol, Write: []string{Wildcard}}, true},
		{"writers", &record.AccessSnapshot{Protocol: StaticProtocol, Write: []string{keys.Account("a"), keys.Account("b")}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ctrl.ValidateConfig(tt.snapshot)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrConfig)
			}
		})
	}
}

func TestStatic_CanAppend(t *testing.T) {
	keys := record.NewTestKeys()
	genesis, err := record.BuildGenesis(record.AccessSnapshot{Protocol: StaticProtocol, Write: []string{keys.Account("a")}}, nil)
	require.NoError(t, err)
	entryBy := func(name string) *record.Record {
		return record.MustBuild(record.BuilderContent{
			EpochRefs: []string{genesis.Id},
			Clock:     1,
			PrivKey:   keys.Key(name),
		})
	}
	ctrl := NewStatic()

	ok, err := ctrl.CanAppend(entryBy("a"), genesis.Data.Access)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ctrl.CanAppend(entryBy("b"), genesis.Data.Access)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = ctrl.CanAppend(genesis, genesis.Data.Access)
	require.NoError(t, err)
	assert.False(t, ok)

	open := &record.AccessSnapshot{Protocol: StaticProtocol, Write: []string{Wildcard}}
	ok, err = ctrl.CanAppend(entryBy("b"), open)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheck(t *testing.T) {
	keys := record.NewTestKeys()
	genesis, err := record.BuildGenesis(record.AccessSnapshot{Protocol: StaticProtocol, Write: []string{keys.Account("a")}}, nil)
	require.NoError(t, err)
	entry := record.MustBuild(record.BuilderContent{EpochRefs: []string{genesis.Id}, Clock: 1, PrivKey: keys.Key("a")})
	ctrl, err := New(StaticProtocol)
	require.NoError(t, err)

	assert.NoError(t, Check(ctrl, entry, genesis.Data.Access))
	assert.ErrorIs(t, Check(ctrl, entry, nil), ErrAccessDenied)
	assert.ErrorIs(t, Check(ctrl, entry, &record.AccessSnapshot{Protocol: "/other", Write: []string{Wildcard}}), ErrAccessDenied)

	invalid := &record.AccessSnapshot{Protocol: StaticProtocol}
	err = Check(ctrl, entry, invalid)
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.ErrorIs(t, err, ErrConfig)

	other := record.MustBuild(record.BuilderContent{EpochRefs: []string{genesis.Id}, Clock: 1, PrivKey: keys.Key("b")})
	assert.ErrorIs(t, Check(ctrl, other, genesis.Data.Access), ErrAccessDenied)

	_, err = New("/unknown")
	assert.ErrorIs(t, err, ErrConfig)
}
