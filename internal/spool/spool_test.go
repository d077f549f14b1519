package spool

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestSpool(t *testing.T) *Spool {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "spool.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEnqueueBatchRemove(t *testing.T) {
	s := openTestSpool(t)

	base := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Enqueue(Item{
			ID:        fmt.Sprintf("ev-%d", i),
			Payload:   json.RawMessage(fmt.Sprintf(`{"n":%d}`, i)),
			Timestamp: base.Add(time.Duration(i) * time.Millisecond),
		}))
	}

	n, err := s.Len()
	require.NoError(t, err)
	require.Equal(t, 3, n)

	items, err := s.Batch(2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	// oldest first
	require.Equal(t, "ev-0", items[0].ID)
	require.Equal(t, "ev-1", items[1].ID)

	require.NoError(t, s.Remove(items[0]))
	n, err = s.Len()
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestRequeue_BumpsRetriesAndMovesToBack(t *testing.T) {
	s := openTestSpool(t)

	base := time.Now()
	require.NoError(t, s.Enqueue(Item{ID: "a", Timestamp: base}))
	require.NoError(t, s.Enqueue(Item{ID: "b", Timestamp: base.Add(time.Millisecond)}))

	items, err := s.Batch(1)
	require.NoError(t, err)
	require.Equal(t, "a", items[0].ID)

	require.NoError(t, s.Requeue(items[0]))

	items, err = s.Batch(10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "b", items[0].ID)
	require.Equal(t, "a", items[1].ID)
	require.Equal(t, 1, items[1].Retries)
}

func TestRemove_ByIDWithoutKey(t *testing.T) {
	s := openTestSpool(t)
	require.NoError(t, s.Enqueue(Item{ID: "x"}))
	require.NoError(t, s.Remove(Item{ID: "x"}))

	n, err := s.Len()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestReopen_KeepsItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spool.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Enqueue(Item{ID: "persist"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	items, err := s.Batch(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "persist", items[0].ID)
}
