// ABOUTME: Tests for the persisted event log: append, resume cursor, listing.

package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLog_AppendAndList(t *testing.T) {
	l := openTestLog(t)
	ctx := t.Context()

	require.NoError(t, l.Append(ctx, "conv-1", 1, "action", []byte(`{"action":"message"}`)))
	require.NoError(t, l.Append(ctx, "conv-1", 2, "observation", []byte(`{"observation":"run"}`)))
	require.NoError(t, l.Append(ctx, "conv-1", 0, "status", []byte(`{"status_update":true}`)))

	records, err := l.List(ctx, "conv-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, records, 2, "events without ids sit below the since filter")
	assert.Equal(t, int64(1), records[0].EventID)
	assert.Equal(t, int64(2), records[1].EventID)
	assert.JSONEq(t, `{"observation":"run"}`, string(records[1].Payload))
}

func TestLog_ListSinceAndLimit(t *testing.T) {
	l := openTestLog(t)
	ctx := t.Context()

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, l.Append(ctx, "conv-1", i, "observation", []byte(`{}`)))
	}

	records, err := l.List(ctx, "conv-1", 2, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, int64(3), records[0].EventID)

	records, err = l.List(ctx, "conv-1", 0, 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestLog_LatestEventID(t *testing.T) {
	l := openTestLog(t)
	ctx := t.Context()

	_, err := l.LatestEventID(ctx, "conv-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, l.Append(ctx, "conv-1", 7, "action", []byte(`{}`)))
	require.NoError(t, l.Append(ctx, "conv-1", 3, "observation", []byte(`{}`)))

	id, err := l.LatestEventID(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestLog_ConversationsIsolated(t *testing.T) {
	l := openTestLog(t)
	ctx := t.Context()

	require.NoError(t, l.Append(ctx, "conv-1", 1, "action", []byte(`{}`)))
	require.NoError(t, l.Append(ctx, "conv-2", 9, "action", []byte(`{}`)))

	id, err := l.LatestEventID(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	records, err := l.List(ctx, "conv-2", 0, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(9), records[0].EventID)
}

func TestLog_ReopenPreservesEvents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")
	ctx := t.Context()

	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, "conv-1", 12, "observation", []byte(`{}`)))
	require.NoError(t, l.Close())

	l2, err := Open(path)
	require.NoError(t, err)
	defer l2.Close()

	id, err := l2.LatestEventID(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
}
