package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsFS(t *testing.T) {
	entries, err := fs.ReadDir(MigrationsFS, MigrationsDir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
		data, err := fs.ReadFile(MigrationsFS, MigrationsDir+"/"+e.Name())
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "-- +goose Up"), e.Name())
		assert.Contains(t, string(data), "-- +goose Down", e.Name())
	}
	assert.Equal(t, []string{
		"00001_locations.sql",
		"00002_reference_data.sql",
		"00003_accounts.sql",
		"00004_listings.sql",
	}, names)
}
