package docstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newBoltStore(t *testing.T) *BoltStore {
	t.Helper()

	s, err := OpenBolt(filepath.Join(t.TempDir(), "docstore.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestBoltStore(t *testing.T) {
	testStoreContract(t, func(t *testing.T, now func() time.Time) Store {
		return newBoltStore(t).WithClock(now)
	})
}

func TestBoltStoreCanceledContext(t *testing.T) {
	s := newBoltStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Set(ctx, "processes", "p1", map[string]any{"name": "p1"})
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, err, ErrTransport)

	_, err = s.Get(context.Background(), "processes", "p1")
	require.ErrorIs(t, err, ErrNotFound)
}
