package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

var ErrClosed = errors.New("messaging: broker closed")

const localBuffer = 64

// LocalBroker delivers messages in-process. It is used when no Redis URL is configured.
// A subscriber whose buffer is full misses the message.
type LocalBroker struct {
	log zerolog.Logger

	mu     sync.Mutex
	subs   map[string]map[chan []byte]struct{}
	closed bool
}

func NewLocalBroker(log zerolog.Logger) *LocalBroker {
	return &LocalBroker{log: log, subs: map[string]map[chan []byte]struct{}{}}
}

func (b *LocalBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	for ch := range b.subs[channel] {
		select {
		case ch <- payload:
		default:
			b.log.Warn().Str("channel", channel).Msg("subscriber buffer full, message dropped")
		}
	}
	return nil
}

// Subscribe returns a channel that is closed when ctx ends or the broker closes.
func (b *LocalBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	ch := make(chan []byte, localBuffer)
	if b.subs[channel] == nil {
		b.subs[channel] = map[chan []byte]struct{}{}
	}
	b.subs[channel][ch] = struct{}{}

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[channel][ch]; ok {
			delete(b.subs[channel], ch)
			close(ch)
		}
	}()
	return ch, nil
}

func (b *LocalBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for channel, subs := range b.subs {
		for ch := range subs {
			close(ch)
		}
		delete(b.subs, channel)
	}
	return nil
}
