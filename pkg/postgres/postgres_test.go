package postgres

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DRSN-tech/catalog-categories/internal/cfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	dsn := DSN(&cfg.PGDBCfg{
		Host:     "db",
		Port:     "5433",
		User:     "catalog",
		Password: "secret",
		DBName:   "categories",
		SSLMode:  "disable",
	})

	assert.Equal(t, "host=db port=5433 user=catalog password=secret dbname=categories sslmode=disable", dsn)
}

func TestCategoriesMigrationNameColumn(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "db", "migrations", "000001_create_categories.up.sql"))
	require.NoError(t, err)
	schema := string(data)

	assert.Contains(t, schema, "name        TEXT NOT NULL")
	assert.Contains(t, schema, "CHECK (char_length(btrim(name)) BETWEEN 3 AND 255)")
	assert.NotContains(t, schema, "VARCHAR(255)")
}
