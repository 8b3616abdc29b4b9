package crawler_test

import (
	"context"
	"errors"
	"repocrawler/internal/crawler"
	"repocrawler/pkg/serrors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChanQueue_PushPopFIFO(t *testing.T) {
	t.Parallel()

	q := crawler.NewChanQueue(4)
	ctx := context.Background()

	a := crawler.Request{Kind: crawler.RequestSearchOrganization, Query: "a"}
	b := crawler.Request{Kind: crawler.RequestSearchOrganization, Query: "b"}

	require.NoError(t, q.Push(ctx, a))
	require.NoError(t, q.Push(ctx, b))
	require.Equal(t, 2, q.Buffered())

	got, err := q.Pop(ctx)
	require.NoError(t, err)
	require.Equal(t, a, got)

	got, err = q.Pop(ctx)
	require.NoError(t, err)
	require.Equal(t, b, got)
	require.Equal(t, 0, q.Buffered())
}

func TestChanQueue_CloseDrainsThenReturnsClosed(t *testing.T) {
	t.Parallel()

	q := crawler.NewChanQueue(4)
	ctx := context.Background()
	req := crawler.Request{Kind: crawler.RequestSearchOrganization, Query: "a"}

	require.NoError(t, q.Push(ctx, req))
	q.Close()

	got, err := q.Pop(ctx)
	require.NoError(t, err)
	require.Equal(t, req, got)

	_, err = q.Pop(ctx)
	require.ErrorIs(t, err, serrors.ErrQueueClosed)
}

func TestChanQueue_PushAfterCloseIsRejected(t *testing.T) {
	t.Parallel()

	q := crawler.NewChanQueue(1)
	q.Close()

	err := q.Push(context.Background(), crawler.Request{})
	require.ErrorIs(t, err, serrors.ErrQueueClosed)
}

func TestChanQueue_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	q := crawler.NewChanQueue(1)
	require.NotPanics(t, func() {
		q.Close()
		q.Close()
	})
}

func TestChanQueue_PopBlocksUntilContextCancelled(t *testing.T) {
	t.Parallel()

	q := crawler.NewChanQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Pop(ctx)
	require.Error(t, err)
	require.False(t, errors.Is(err, serrors.ErrQueueClosed))
}

func TestChanQueue_PushBlocksWhenFullUntilContextCancelled(t *testing.T) {
	t.Parallel()

	q := crawler.NewChanQueue(1)
	require.NoError(t, q.Push(context.Background(), crawler.Request{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := q.Push(ctx, crawler.Request{})
	require.Error(t, err)
}
