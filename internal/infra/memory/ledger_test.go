package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerMarkAndCheck(t *testing.T) {
	l := NewLedger(time.Hour)
	ctx := context.Background()

	done, err := l.Delivered(ctx, "job-1:worker:NEW_JOB:w1")
	require.NoError(t, err)
	assert.False(t, done)

	first, err := l.MarkDelivered(ctx, "job-1:worker:NEW_JOB:w1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := l.MarkDelivered(ctx, "job-1:worker:NEW_JOB:w1")
	require.NoError(t, err)
	assert.False(t, again, "re-marking a recorded key reports it as seen")

	done, err = l.Delivered(ctx, "job-1:worker:NEW_JOB:w1")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestLedgerEntriesExpire(t *testing.T) {
	l := NewLedger(time.Minute)
	now := time.Now()
	l.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := l.MarkDelivered(ctx, "key")
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	done, err := l.Delivered(ctx, "key")
	require.NoError(t, err)
	assert.True(t, done)

	now = now.Add(31 * time.Second)
	done, err = l.Delivered(ctx, "key")
	require.NoError(t, err)
	assert.False(t, done, "entry past its TTL no longer counts")

	first, err := l.MarkDelivered(ctx, "key")
	require.NoError(t, err)
	assert.True(t, first, "an expired key can be recorded again")
}
