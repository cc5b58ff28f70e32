package provider

import (
	"context"
	"sync/atomic"
)

// Mock is the provider used while sharing is disabled. It never connects
// anywhere and never reports peers.
type Mock struct {
	ready    chan struct{}
	disposed atomic.Bool
}

var _ Provider = (*Mock)(nil)

func NewMock() *Mock {
	m := &Mock{ready: make(chan struct{})}
	close(m.ready)
	return m
}

func (m *Mock) Ready() <-chan struct{} { return m.ready }

func (m *Mock) RequestInitialContent(context.Context) (bool, error) {
	return false, nil
}

func (m *Mock) OnSynced(func(bool)) func() { return func() {} }
func (m *Mock) OnPeers(func(int)) func()   { return func() {} }
func (m *Mock) PeerCount() int             { return 0 }
func (m *Mock) Dispose()                   { m.disposed.Store(true) }
func (m *Mock) IsDisposed() bool           { return m.disposed.Load() }
