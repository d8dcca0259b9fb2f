package closure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// add mimics an accepted ingestion
func add(idx *Index, id string, clock uint64, refs ...string) []string {
	created := idx.Reference(id, refs)
	idx.SetPresent(id, clock, refs)
	return created
}

func TestIndex_Heads(t *testing.T) {
	idx := New()
	idx.SetPresent("g", 0, nil)
	assert.Equal(t, []string{"g"}, idx.Heads())

	add(idx, "x1", 1, "g")
	assert.Equal(t, []string{"x1"}, idx.Heads())

	// denied record cites x1 but doesn't hide it
	idx.Reference("x2", []string{"x1", "g"})
	idx.SetDenied("x2", 2)
	assert.Equal(t, []string{"x1"}, idx.Heads())

	add(idx, "x3", 2, "x1", "g")
	assert.Equal(t, []string{"x3"}, idx.Heads())

	add(idx, "b", 3, "x1", "g")
	add(idx, "a", 3, "x1", "g")
	assert.Equal(t, []string{"x3", "a", "b"}, idx.Heads())

	require.NoError(t, idx.CheckInvariants())
	assert.Equal(t, idx.Heads(), idx.RecomputeHeads())
}

func TestIndex_Missing(t *testing.T) {
	idx := New()
	idx.SetPresent("g", 0, nil)

	created := add(idx, "c", 2, "p", "g")
	assert.Equal(t, []string{"p"}, created)
	assert.Equal(t, []string{"p"}, idx.Missing())
	assert.False(t, idx.Known("p"))
	assert.True(t, idx.Has("p"))
	assert.Equal(t, []string{"c"}, idx.Heads())

	n, ok := idx.Get("p")
	require.True(t, ok)
	assert.Equal(t, StateMissing, n.State)
	assert.Equal(t, []string{"c"}, n.In)
	assert.Empty(t, n.Out)
	require.NoError(t, idx.CheckInvariants())

	// second reference doesn't recreate
	assert.Empty(t, idx.Reference("d", []string{"p"}))

	add(idx, "p", 1, "g")
	assert.Empty(t, idx.Missing())
	n, _ = idx.Get("p")
	assert.Equal(t, StatePresent, n.State)
	assert.Equal(t, []string{"c", "d"}, n.In)
	assert.Equal(t, []string{"g"}, n.Out)
	assert.Equal(t, []string{"c"}, idx.Heads())
	require.NoError(t, idx.CheckInvariants())
}

func TestIndex_PendingAndDenied(t *testing.T) {
	idx := New()
	idx.SetPresent("g", 0, nil)
	idx.Reference("x", []string{"e"})
	idx.SetPending("x", 1)
	st, ok := idx.State("x")
	require.True(t, ok)
	assert.Equal(t, StatePending, st)
	assert.True(t, idx.Known("x"))
	assert.Equal(t, []string{"g"}, idx.Heads())
	require.NoError(t, idx.CheckInvariants())

	add(idx, "e", 1, "g")
	idx.SetPresent("x", 1, []string{"e"})
	assert.Equal(t, []string{"x"}, idx.Heads())
	require.NoError(t, idx.CheckInvariants())

	idx.Reference("y", []string{"x"})
	idx.SetDenied("y", 2)
	assert.Panics(t, func() { idx.SetPresent("y", 2, []string{"x"}) })
	assert.Panics(t, func() { idx.SetPending("x", 1) })
	assert.Panics(t, func() { idx.SetDenied("y", 2) })
	assert.Equal(t, 1, idx.Count(StateDenied))
	assert.Equal(t, 3, idx.Count(StatePresent))
}

func TestIndex_DenyPresent(t *testing.T) {
	idx := New()
	idx.SetPresent("g", 0, nil)
	add(idx, "a", 1, "g")
	add(idx, "b", 1, "a", "g")
	add(idx, "c", 2, "b", "g")
	assert.Equal(t, []string{"c"}, idx.Heads())

	idx.SetDenied("c", 2)
	n, ok := idx.Get("c")
	require.True(t, ok)
	assert.Equal(t, StateDenied, n.State)
	assert.Empty(t, n.Out)
	// b has no present citer left
	assert.Equal(t, []string{"b"}, idx.Heads())
	require.NoError(t, idx.CheckInvariants())
	assert.Equal(t, idx.Heads(), idx.RecomputeHeads())

	idx.SetDenied("a", 1)
	assert.Equal(t, []string{"b"}, idx.Heads())
	require.NoError(t, idx.CheckInvariants())
}

func TestIndex_Traverse(t *testing.T) {
	idx := New()
	idx.SetPresent("g", 0, nil)
	add(idx, "a", 1, "g")
	add(idx, "b", 1, "g")
	add(idx, "c", 2, "a", "b", "g")
	add(idx, "d", 3, "c", "m", "g")

	t.Run("outbound", func(t *testing.T) {
		assert.Equal(t, []string{"d", "c", "g", "m", "a", "b"}, idx.Traverse("d", Outbound).Collect())
	})
	t.Run("inbound", func(t *testing.T) {
		assert.Equal(t, []string{"g", "a", "b", "c", "d"}, idx.Traverse("g", Inbound).Collect())
	})
	t.Run("restartable", func(t *testing.T) {
		tr := idx.Traverse("c", Outbound)
		first, ok := tr.Next()
		require.True(t, ok)
		assert.Equal(t, "c", first)
		assert.Equal(t, []string{"c", "a", "b", "g"}, idx.Traverse("c", Outbound).Collect())
		assert.Equal(t, []string{"a", "b", "g"}, tr.Collect())
	})
	t.Run("unknown", func(t *testing.T) {
		assert.Empty(t, idx.Traverse("zz", Inbound).Collect())
	})
	t.Run("missing leaf", func(t *testing.T) {
		assert.Equal(t, []string{"m", "d"}, idx.Traverse("m", Inbound).Collect())
		assert.Equal(t, []string{"m"}, idx.Traverse("m", Outbound).Collect())
	})
	t.Run("denied node does not propagate", func(t *testing.T) {
		idx.Reference("z", []string{"d"})
		idx.SetDenied("z", 4)
		assert.Equal(t, []string{"z"}, idx.Traverse("z", Outbound).Collect())
		assert.Contains(t, idx.Traverse("d", Inbound).Collect(), "z")
	})
	require.NoError(t, idx.CheckInvariants())
}
