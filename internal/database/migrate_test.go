package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations_SortsAndPairs(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000002_add_index.up.sql":   {Data: []byte("CREATE INDEX x ON t (a);")},
		"m/000002_add_index.down.sql": {Data: []byte("DROP INDEX x;")},
		"m/000001_init.up.sql":        {Data: []byte("CREATE TABLE t (a INT);")},
		"m/000001_init.down.sql":      {Data: []byte("DROP TABLE t;")},
		"m/README.md":                 {Data: []byte("ignored")},
	}

	got, err := LoadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Version)
	assert.Equal(t, "init", got[0].Name)
	assert.Equal(t, "000002_add_index", got[1].String())
	assert.Equal(t, "DROP INDEX x;", got[1].DownScript)
}

func TestLoadMigrations_MissingDownFails(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000001_init.up.sql": {Data: []byte("CREATE TABLE t (a INT);")},
	}
	_, err := LoadMigrations(fsys, "m")
	assert.Error(t, err)
}

func TestEmbeddedMigrations_Registered(t *testing.T) {
	m := GetMigrationByVersion(1)
	require.NotNil(t, m)
	assert.Contains(t, m.UpScript, "CREATE TABLE IF NOT EXISTS friendships")
	assert.Contains(t, m.UpScript, "idx_conversations_direct_key")
	assert.Contains(t, m.DownScript, "DROP TABLE IF EXISTS messages")
}

func TestValidateAppliedVersions_RejectsUnknown(t *testing.T) {
	err := validateAppliedVersions([]int{1, 42}, []Migration{{Version: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000042")
	assert.NoError(t, validateAppliedVersions([]int{1}, []Migration{{Version: 1}}))
}
