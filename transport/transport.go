// Package transport abstracts the two-party byte-stream channel the
// reconciliation layer speaks over. The contract is deliberately small: tag a
// role to break symmetry, send byte sequences, receive until closed. Pair
// wires two in-process endpoints back-to-back for tests and embedded use; a
// websocket realisation covers real links.
package transport

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// Role identifies which of the two fixed peer identities an endpoint plays.
type Role uint8

const (
	// Initiator opens the exchange.
	Initiator Role = iota + 1
	// Responder answers it.
	Responder
)

func (r Role) String() string {
	switch r {
	case Initiator:
		return "initiator"
	case Responder:
		return "responder"
	default:
		return "unknown"
	}
}

// Conn is one endpoint of a two-party byte-stream channel.
type Conn interface {
	// Role returns the endpoint's identity.
	Role() Role

	// Send enqueues an outbound byte sequence. Once the endpoint is
	// closed, sends are silently discarded, not errors.
	Send(ctx context.Context, p []byte) error

	// Recv returns the next inbound byte sequence. It returns io.EOF
	// once the endpoint is closed (or the peer is closed and the queue
	// is drained).
	Recv(ctx context.Context) ([]byte, error)

	// Close marks the endpoint closed and ends its inbound sequence.
	// It is idempotent.
	Close() error

	// IsClosed reports whether Close has been called.
	IsClosed() bool
}

// Pair returns two endpoints wired back-to-back via two independent
// one-directional queues of the given capacity; each side's outgoing queue is
// the other side's incoming queue. The first endpoint is the Initiator.
func Pair(buffer int) (Conn, Conn) {
	if buffer < 0 {
		buffer = 0
	}
	ab := make(chan []byte, buffer)
	ba := make(chan []byte, buffer)
	a := &pipe{role: Initiator, out: ab, in: ba, done: make(chan struct{})}
	b := &pipe{role: Responder, out: ba, in: ab, done: make(chan struct{})}
	a.peerDone = b.done
	b.peerDone = a.done
	return a, b
}

type pipe struct {
	role     Role
	out      chan<- []byte
	in       <-chan []byte
	done     chan struct{}
	peerDone <-chan struct{}
	once     sync.Once
}

func (p *pipe) Role() Role { return p.role }

func (p *pipe) Send(ctx context.Context, msg []byte) error {
	select {
	case <-p.done:
		return nil
	default:
	}
	select {
	case p.out <- bytes.Clone(msg):
		return nil
	case <-p.done:
		return nil
	case <-p.peerDone:
		// Nobody will read it; drop.
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pipe) Recv(ctx context.Context) ([]byte, error) {
	select {
	case <-p.done:
		return nil, io.EOF
	default:
	}
	select {
	case msg := <-p.in:
		return msg, nil
	case <-p.done:
		return nil, io.EOF
	case <-p.peerDone:
		// The peer stopped sending; hand out what is already queued.
		select {
		case msg := <-p.in:
			return msg, nil
		default:
			return nil, io.EOF
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *pipe) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

func (p *pipe) IsClosed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}
