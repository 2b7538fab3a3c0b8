package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	require.Len(t, files, 2)

	var all strings.Builder
	for _, f := range files {
		body, err := fs.ReadFile(migrations, f)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", f)
		assert.Contains(t, string(body), "-- +goose Down", f)
		all.Write(body)
	}
	for _, table := range []string{"users", "articles", "polls", "proposals", "proposal_replies", "events", "notifications", "scheduled_notifications"} {
		assert.Contains(t, all.String(), "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
}

func TestNullBoolHelpers(t *testing.T) {
	assert.False(t, boolPtrValue(nil).Valid)
	v := true
	assert.True(t, boolPtrValue(&v).Bool)
	assert.Nil(t, nullBoolPtr(boolPtrValue(nil)))
	assert.True(t, *nullBoolPtr(boolPtrValue(&v)))
}
