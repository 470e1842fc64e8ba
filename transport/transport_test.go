package transport_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/metailurini/rangesync/transport"
)

func TestPairRoles(t *testing.T) {
	a, b := transport.Pair(1)
	require.Equal(t, transport.Initiator, a.Role())
	require.Equal(t, transport.Responder, b.Role())
	require.Equal(t, "initiator", a.Role().String())
	require.Equal(t, "responder", b.Role().String())
}

func TestPairRoundTrip(t *testing.T) {
	ctx := context.Background()
	a, b := transport.Pair(4)

	require.NoError(t, a.Send(ctx, []byte("ping")))
	got, err := b.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("ping"), got)

	require.NoError(t, b.Send(ctx, []byte("pong")))
	got, err = a.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("pong"), got)
}

func TestPairSendCopiesPayload(t *testing.T) {
	ctx := context.Background()
	a, b := transport.Pair(1)

	msg := []byte("original")
	require.NoError(t, a.Send(ctx, msg))
	msg[0] = 'X'

	got, err := b.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("original"), got)
}

func TestPairClose(t *testing.T) {
	ctx := context.Background()
	a, b := transport.Pair(4)

	require.NoError(t, a.Send(ctx, []byte("queued")))
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	require.True(t, a.IsClosed())
	require.False(t, b.IsClosed())

	// Sends on a closed endpoint are discarded without error.
	require.NoError(t, a.Send(ctx, []byte("dropped")))
	_, err := a.Recv(ctx)
	require.ErrorIs(t, err, io.EOF)

	// The peer drains what was queued, then sees EOF.
	got, err := b.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("queued"), got)
	_, err = b.Recv(ctx)
	require.ErrorIs(t, err, io.EOF)
}

func TestPairRecvHonorsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	a, _ := transport.Pair(0)
	_, err := a.Recv(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPairUnbufferedSendBlocksUntilRecv(t *testing.T) {
	ctx := context.Background()
	a, b := transport.Pair(0)

	done := make(chan error, 1)
	go func() { done <- a.Send(ctx, []byte("x")) }()

	got, err := b.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("x"), got)
	require.NoError(t, <-done)
}
