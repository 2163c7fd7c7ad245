package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/dexcell/pkg/message"
)

func reading(seq int64) message.ServiceMessage {
	return message.MustNew("n1", 402, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 1.5, seq)
}

func TestDefaultBatcher_CountTrigger(t *testing.T) {
	b := NewDefaultBatcher(3, time.Hour)

	assert.False(t, b.Add(reading(1)))
	assert.False(t, b.Add(reading(2)))
	assert.True(t, b.Add(reading(3)))
	assert.Equal(t, 3, b.Len())

	got := b.Batch()
	require.Len(t, got, 3)
	assert.Equal(t, int64(1), got[0].SeqNum)
	assert.Equal(t, int64(3), got[2].SeqNum)

	b.Reset()
	assert.False(t, b.HasPending())
	assert.Len(t, got, 3, "Batch must return a copy")
}

func TestDefaultBatcher_TimeTrigger(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBatcher(0, 5*time.Second, func() time.Time { return now })

	assert.False(t, b.ShouldSend(), "empty batch never sends")

	b.Add(reading(1))
	assert.False(t, b.ShouldSend())

	now = now.Add(5 * time.Second)
	assert.True(t, b.ShouldSend())

	b.Reset()
	b.Add(reading(2))
	assert.False(t, b.ShouldSend())
}

func TestRun_FlushesOnCountAndClose(t *testing.T) {
	in := make(chan message.ServiceMessage)
	var batches [][]message.ServiceMessage
	flush := func(_ context.Context, msgs []message.ServiceMessage) error {
		batches = append(batches, msgs)
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), NewDefaultBatcher(2, time.Hour), in, time.Hour, flush)
	}()

	for i := int64(1); i <= 5; i++ {
		in <- reading(i)
	}
	close(in)
	require.NoError(t, <-done)

	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 2)
	assert.Len(t, batches[2], 1)
	assert.Equal(t, int64(5), batches[2][0].SeqNum)
}

func TestRun_FlushesOnInterval(t *testing.T) {
	in := make(chan message.ServiceMessage, 1)
	flushed := make(chan []message.ServiceMessage, 1)
	flush := func(_ context.Context, msgs []message.ServiceMessage) error {
		flushed <- msgs
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = Run(ctx, NewDefaultBatcher(100, 10*time.Millisecond), in, 5*time.Millisecond, flush)
	}()

	in <- reading(1)
	select {
	case msgs := <-flushed:
		assert.Len(t, msgs, 1)
	case <-time.After(5 * time.Second):
		t.Fatal("interval flush did not happen")
	}
}

func TestRun_CancelFlushesPending(t *testing.T) {
	in := make(chan message.ServiceMessage)
	var got []message.ServiceMessage
	flush := func(ctx context.Context, msgs []message.ServiceMessage) error {
		assert.NoError(t, ctx.Err())
		got = msgs
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, NewDefaultBatcher(100, time.Hour), in, time.Hour, flush)
	}()

	in <- reading(1)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Len(t, got, 1)
}

func TestRun_FlushError(t *testing.T) {
	in := make(chan message.ServiceMessage, 1)
	boom := errors.New("boom")
	in <- reading(1)

	err := Run(context.Background(), NewDefaultBatcher(1, time.Hour), in, time.Hour,
		func(context.Context, []message.ServiceMessage) error { return boom })
	assert.ErrorIs(t, err, boom)
}
