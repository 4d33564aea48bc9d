package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/0xcro3dile/resume-intel/internal/adapters/storage/storetest"
	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), SQLite, filepath.Join(t.TempDir(), "data", "test.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Store { return openTemp(t) })
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Dialect("mysql"), "", nil)
	assert.ErrorContains(t, err, "unsupported storage driver")
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: Postgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	lite := &Store{dialect: SQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestWriteVersion_RejectsMixedDimensions(t *testing.T) {
	s := openTemp(t)
	err := s.WriteVersion(context.Background(), []entities.SegmentEmbedding{
		{ID: "a", UserID: "u1", ResumeID: "r1", Version: "v1", SegmentID: "personal", Vector: []float32{1, 2}},
		{ID: "b", UserID: "u1", ResumeID: "r1", Version: "v1", SegmentID: "experience-0", Vector: []float32{1}},
	})
	assert.ErrorContains(t, err, "dimensionality")

	n, err := s.CountVersion(context.Background(), "u1", "v1")
	require.NoError(t, err)
	assert.Zero(t, n)
}
