package bridge

import (
	"context"
	"sync"
)

// HandlerFunc answers one command for MemoryMailbox.
type HandlerFunc func(ctx context.Context, cmd Command) (Response, error)

// MemoryMailbox is an in-process Mailbox used by tests and acceptance scenarios.
type MemoryMailbox struct {
	mu       sync.Mutex
	handler  HandlerFunc
	inFlight bool
	sent     []Command
}

// NewMemoryMailbox creates a mailbox that answers through handler.
func NewMemoryMailbox(handler HandlerFunc) *MemoryMailbox {
	return &MemoryMailbox{handler: handler}
}

// SetHandler replaces the answering function.
func (m *MemoryMailbox) SetHandler(handler HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}

// Send records cmd and returns the handler's answer. Overlapping sends fail
// with ErrBusy, mirroring the single command slot on disk.
func (m *MemoryMailbox) Send(ctx context.Context, cmd Command) (Response, error) {
	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return Response{}, ErrBusy
	}
	m.inFlight = true
	m.sent = append(m.sent, cmd)
	handler := m.handler
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight = false
		m.mu.Unlock()
	}()

	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if handler == nil {
		return Response{Success: true}, nil
	}
	return handler(ctx, cmd)
}

// Sent returns a copy of every command received so far.
func (m *MemoryMailbox) Sent() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Command, len(m.sent))
	copy(out, m.sent)
	return out
}

// Kinds returns the kinds of every command received so far.
func (m *MemoryMailbox) Kinds() []Kind {
	sent := m.Sent()
	kinds := make([]Kind, 0, len(sent))
	for _, cmd := range sent {
		kinds = append(kinds, cmd.Kind)
	}
	return kinds
}
