package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hldb/welo-sub001/replica"
)

const sample = `
log:
  defaultLevel: info
  levels:
    - name: welo.replica
      level: debug
replica:
  name: notes
  writers: ["*"]
  fetchQueueSize: 128
storage:
  path: /tmp/welo
metric:
  addr: 127.0.0.1:9090
replicator:
  rebroadcastPeriod: 5
`

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	c, err := NewFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "info", c.Log.DefaultLevel)
	require.Len(t, c.Log.Levels, 1)
	assert.Equal(t, "welo.replica", c.Log.Levels[0].Name)

	r := c.GetReplica()
	assert.Equal(t, "notes", r.Name)
	assert.Equal(t, []string{"*"}, r.Writers)
	assert.Equal(t, 128, r.FetchQueueSize)
	assert.Equal(t, replica.DefaultFetchWorkers, r.FetchWorkers)

	assert.Equal(t, "/tmp/welo", c.GetStorage().Path)
	assert.Equal(t, "127.0.0.1:9090", c.GetMetric().Addr)
	assert.Equal(t, 5, c.GetReplicator().RebroadcastPeriodSec)
	assert.Equal(t, CName, c.Name())
}

func TestParse(t *testing.T) {
	t.Run("zero workers disables fetching", func(t *testing.T) {
		c, err := Parse([]byte("replica:\n  fetchWorkers: 0\n"))
		require.NoError(t, err)
		assert.Equal(t, 0, c.Replica.FetchWorkers)
	})
	t.Run("invalid", func(t *testing.T) {
		_, err := Parse([]byte("replica: ["))
		assert.Error(t, err)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := NewFromFile(filepath.Join(t.TempDir(), "none.yml"))
		assert.Error(t, err)
	})
}
