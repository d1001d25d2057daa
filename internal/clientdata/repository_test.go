package clientdata

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := sql.Open("sqlite", "file:clientdata_test?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(db)
	require.NoError(t, repo.EnsureSchema())

	// Start from a clean slate; the shared in-memory db survives across tests
	for _, table := range AllTables {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}
	return repo
}

func TestStoreAndGetIfFresh(t *testing.T) {
	repo := newTestRepo(t)

	payload := map[string]float64{"bitcoin": 43250.5}
	require.NoError(t, repo.Store("coingecko_quote", "bitcoin:usd", payload, time.Hour))

	data, err := repo.GetIfFresh("coingecko_quote", "bitcoin:usd")
	require.NoError(t, err)
	assert.JSONEq(t, `{"bitcoin":43250.5}`, string(data))
}

func TestGetIfFreshExpired(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Store("coingecko_quote", "bitcoin:usd", "stale", -time.Minute))

	data, err := repo.GetIfFresh("coingecko_quote", "bitcoin:usd")
	require.NoError(t, err)
	assert.Nil(t, data)

	// Stale fallback still returns the data
	data, err = repo.Get("coingecko_quote", "bitcoin:usd")
	require.NoError(t, err)
	assert.JSONEq(t, `"stale"`, string(data))
}

func TestGetMissingKey(t *testing.T) {
	repo := newTestRepo(t)

	data, err := repo.GetIfFresh("coingecko_series", "nope")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestInvalidTableRejected(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.Store("users; DROP TABLE coingecko_quote", "k", "v", time.Hour)
	assert.Error(t, err)
}

func TestDeleteAllExpired(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Store("coingecko_series", "fresh", "a", time.Hour))
	require.NoError(t, repo.Store("coingecko_series", "expired", "b", -time.Minute))
	require.NoError(t, repo.Store("coingecko_quote", "expired", "c", -time.Minute))

	results, err := repo.DeleteAllExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), results["coingecko_series"])
	assert.Equal(t, int64(1), results["coingecko_quote"])

	data, err := repo.Get("coingecko_series", "fresh")
	require.NoError(t, err)
	assert.NotNil(t, data)
}
