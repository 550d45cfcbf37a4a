package dbtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaName(t *testing.T) {
	assert.Equal(t, "test_requests", schemaName("/src/internal/domain/requests"))
	assert.Equal(t, "test_stock_entries", schemaName("/src/internal/domain/Stock-Entries"))
}

func TestWithSearchPath(t *testing.T) {
	got, err := withSearchPath("postgres://u:p@localhost:5432/db?sslmode=disable", "test_users")
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost:5432/db?search_path=test_users&sslmode=disable", got)

	got, err = withSearchPath("host=localhost dbname=db ", "test_users")
	require.NoError(t, err)
	assert.Equal(t, "host=localhost dbname=db search_path=test_users", got)
}
