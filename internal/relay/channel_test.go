package relay

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azunyan1111/go-webm-relay/internal/webm"
)

func bodies(n int) []webm.Chunk {
	out := make([]webm.Chunk, n)
	for i := range out {
		out[i] = &webm.ClusterBodyChunk{}
	}
	return out
}

func TestChannelBroadcastsInOrder(t *testing.T) {
	c := newChannel("test")
	tx, err := c.Transmit()
	require.NoError(t, err)

	first := c.Listen(16)
	second := c.Listen(16)
	defer first.Close()
	defer second.Close()

	sent := bodies(5)
	for _, chunk := range sent {
		tx.Send(chunk)
	}

	ctx := context.Background()
	for _, l := range []*Listener{first, second} {
		for i, want := range sent {
			got, resync, err := l.Recv(ctx)
			require.NoError(t, err)
			assert.False(t, resync)
			assert.Same(t, want, got, "chunk %d", i)
		}
	}
}

func TestChannelDropsForSlowListener(t *testing.T) {
	c := newChannel("test")
	tx, err := c.Transmit()
	require.NoError(t, err)

	l := c.Listen(4)
	defer l.Close()

	for _, chunk := range bodies(100) {
		tx.Send(chunk)
	}

	// Only the queue capacity survives, and the first delivery reports
	// that the stream needs re-alignment.
	ctx := context.Background()
	received := 0
	sawResync := false
	for {
		recvCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		_, resync, err := l.Recv(recvCtx)
		cancel()
		if err != nil {
			break
		}
		received++
		sawResync = sawResync || resync
	}
	assert.Equal(t, 4, received)
	assert.True(t, sawResync)
}

func TestChannelSlowListenerDoesNotAffectOthers(t *testing.T) {
	c := newChannel("test")
	tx, err := c.Transmit()
	require.NoError(t, err)

	slow := c.Listen(2)
	fast := c.Listen(128)
	defer slow.Close()
	defer fast.Close()

	sent := bodies(20)
	for _, chunk := range sent {
		tx.Send(chunk)
	}

	ctx := context.Background()
	for i, want := range sent {
		got, resync, err := fast.Recv(ctx)
		require.NoError(t, err)
		assert.False(t, resync)
		assert.Same(t, want, got, "chunk %d", i)
	}
}

func TestChannelSingleTransmitter(t *testing.T) {
	c := newChannel("test")
	tx, err := c.Transmit()
	require.NoError(t, err)
	assert.True(t, c.HasTransmitter())

	_, err = c.Transmit()
	assert.ErrorIs(t, err, ErrTransmitterBusy)

	tx.Close()
	assert.False(t, c.HasTransmitter())

	// The channel survives for the next source.
	next, err := c.Transmit()
	require.NoError(t, err)
	next.Close()
}

func TestChannelListenersDrainAfterTransmitterCloses(t *testing.T) {
	c := newChannel("test")
	tx, err := c.Transmit()
	require.NoError(t, err)

	l := c.Listen(8)
	sent := bodies(3)
	for _, chunk := range sent {
		tx.Send(chunk)
	}
	tx.Close()

	ctx := context.Background()
	for range sent {
		_, _, err := l.Recv(ctx)
		require.NoError(t, err)
	}
	_, _, err = l.Recv(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestChannelRecvHonorsContext(t *testing.T) {
	c := newChannel("test")
	l := c.Listen(8)
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := l.Recv(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChannelListenerCount(t *testing.T) {
	c := newChannel("test")
	assert.Equal(t, 0, c.Listeners())

	var listeners []*Listener
	for i := 0; i < 3; i++ {
		listeners = append(listeners, c.Listen(0))
	}
	assert.Equal(t, 3, c.Listeners())

	for _, l := range listeners {
		l.Close()
	}
	assert.Equal(t, 0, c.Listeners())
	assert.Equal(t, "test", c.Name())
}
