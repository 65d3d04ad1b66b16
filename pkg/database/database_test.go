package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialector(t *testing.T) {
	for _, d := range []string{"mysql", "", "postgres", "pg", "sqlite"} {
		dial, err := Dialector(d, "dsn")
		require.NoError(t, err, d)
		assert.NotNil(t, dial)
	}
	_, err := Dialector("oracle", "dsn")
	assert.Error(t, err)
}

func TestOpenSQLite(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1, LogLevel: "silent"})
	require.NoError(t, err)

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}
