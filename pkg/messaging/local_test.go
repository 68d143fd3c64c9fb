package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/birthcare-portal/pkg/logger"
)

func receive(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message")
		return nil
	}
}

func TestLocalBrokerFanOut(t *testing.T) {
	b := NewLocalBroker(logger.Nop())
	defer b.Close()
	ctx := context.Background()

	a, err := b.Subscribe(ctx, ChannelVisitScheduled)
	require.NoError(t, err)
	c, err := b.Subscribe(ctx, ChannelVisitScheduled)
	require.NoError(t, err)
	other, err := b.Subscribe(ctx, "other")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, ChannelVisitScheduled, VisitScheduled{VisitID: 1}))
	assert.JSONEq(t, `{"visit_id":1,"patient_id":0,"scheduled_date":""}`, string(receive(t, a)))
	assert.JSONEq(t, `{"visit_id":1,"patient_id":0,"scheduled_date":""}`, string(receive(t, c)))
	assert.Empty(t, other)
}

func TestLocalBrokerUnsubscribeOnCancel(t *testing.T) {
	b := NewLocalBroker(logger.Nop())
	defer b.Close()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := b.Subscribe(ctx, "c")
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool {
		_, ok := <-ch
		return !ok
	}, time.Second, 5*time.Millisecond)
	assert.NoError(t, b.Publish(context.Background(), "c", "x"))
}

func TestLocalBrokerClose(t *testing.T) {
	b := NewLocalBroker(logger.Nop())
	ch, err := b.Subscribe(context.Background(), "c")
	require.NoError(t, err)

	require.NoError(t, b.Close())
	_, ok := <-ch
	assert.False(t, ok)
	assert.ErrorIs(t, b.Publish(context.Background(), "c", "x"), ErrClosed)
	_, err = b.Subscribe(context.Background(), "c")
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, b.Close())
}
