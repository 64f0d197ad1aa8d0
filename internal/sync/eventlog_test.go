package syncx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimprep/profile-audit/internal/db"
)

func TestEventRepo_AppendAndSince(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	repo := NewEventRepo(conn)
	repo.now = func() time.Time { return time.Unix(1700000000, 0) }

	e1, err := NewEvent(TypeSubmissionForwarded, "sub-1", map[string]string{"email": "a@example.com"})
	require.NoError(t, err)
	seq1, err := repo.Append(ctx, e1)
	require.NoError(t, err)

	e2, err := NewEvent(TypeResultImported, "ABC", map[string]int{"points": 54})
	require.NoError(t, err)
	seq2, err := repo.Append(ctx, e2)
	require.NoError(t, err)
	assert.Greater(t, seq2, seq1)

	all, err := repo.Since(ctx, "", 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "local", all[0].SiteID)
	assert.Equal(t, `{"email":"a@example.com"}`, all[0].DataJSON)
	assert.Equal(t, int64(1700000000), all[0].CreatedAt)

	imports, err := repo.Since(ctx, TypeResultImported, 0, 0)
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.Equal(t, "ABC", imports[0].Key)

	after, err := repo.Since(ctx, "", seq2, 10)
	require.NoError(t, err)
	assert.Empty(t, after)
}

func TestNewEvent_BadPayload(t *testing.T) {
	_, err := NewEvent(TypeSubmissionRejected, "k", make(chan int))
	assert.Error(t, err)
}
