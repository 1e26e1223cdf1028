package migrations

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-pickup-inventory/internal/logging"
)

func TestLoad_SortedWithChecksums(t *testing.T) {
	ms, err := load()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(ms), 2)

	assert.Equal(t, "0001_init.sql", ms[0].name)
	assert.Equal(t, "0002_draft_claimed_at.sql", ms[1].name)
	for i, m := range ms {
		assert.Len(t, m.checksum, 64, m.name)
		assert.NotEmpty(t, m.sql, m.name)
		if i > 0 {
			assert.Less(t, ms[i-1].name, m.name)
		}
	}

	again, err := load()
	require.NoError(t, err)
	assert.Equal(t, ms, again)
}

func TestApplyIsIdempotent(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}

	log := logging.Discard()
	require.NoError(t, Apply(ctx, pool, log))
	require.NoError(t, Apply(ctx, pool, log))

	var n int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE name = '0002_draft_claimed_at.sql'`).Scan(&n))
	require.Equal(t, 1, n)
}
