// Package inbox is the queue between driver callbacks and the router loop.
// Driver goroutines push without blocking; the loop receives.
package inbox

import (
	"context"
	"sync"
	"time"

	"github.com/leandrodaf/mididings/sdk/contracts"
)

// DefaultSize is used when a non-positive size is requested.
const DefaultSize = 256

// Inbox buffers received packets until the loop asks for them.
type Inbox struct {
	logger  contracts.Logger
	packets chan contracts.Packet
	done    chan struct{}
	once    sync.Once
	err     error // set before done is closed
}

// New returns an inbox holding up to size packets.
func New(size int, logger contracts.Logger) *Inbox {
	if size <= 0 {
		size = DefaultSize
	}
	return &Inbox{
		logger:  logger,
		packets: make(chan contracts.Packet, size),
		done:    make(chan struct{}),
	}
}

// Push queues a copy of data received on port. A full queue drops the
// packet with a warning so the driver callback never blocks.
func (b *Inbox) Push(port int, data []byte) bool {
	select {
	case <-b.done:
		return false
	default:
	}

	p := contracts.Packet{
		Timestamp: uint64(time.Now().UTC().UnixNano()),
		Port:      port,
		Data:      append([]byte(nil), data...),
	}
	select {
	case b.packets <- p:
		return true
	default:
		b.logger.Warn("Event buffer full; dropping MIDI event",
			b.logger.Field().Int("port", port))
		return false
	}
}

// Receive blocks until a packet is available, the inbox is closed or ctx
// is done. Queued packets are delivered before the close error.
func (b *Inbox) Receive(ctx context.Context) (contracts.Packet, error) {
	select {
	case p := <-b.packets:
		return p, nil
	default:
	}

	select {
	case p := <-b.packets:
		return p, nil
	case <-b.done:
		select {
		case p := <-b.packets:
			return p, nil
		default:
		}
		return contracts.Packet{}, b.err
	case <-ctx.Done():
		return contracts.Packet{}, ctx.Err()
	}
}

// Close makes Receive fail with err once the queue is drained. A nil err
// means contracts.ErrDisconnected. Only the first call has an effect.
func (b *Inbox) Close(err error) {
	b.once.Do(func() {
		if err == nil {
			err = contracts.ErrDisconnected
		}
		b.err = err
		close(b.done)
	})
}

// Closed reports whether Close was called.
func (b *Inbox) Closed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}
