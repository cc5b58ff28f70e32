// Package signal is a small synchronous observer list used to tell the status
// widget and other listeners that settings or session state changed.
package signal

import "sync"

// Signal delivers Emit calls to every connected slot, in connection order.
type Signal struct {
	mu    sync.Mutex
	next  uint64
	slots []slot
}

type slot struct {
	id uint64
	fn func()
}

// Connect registers fn and returns a function that removes it again.
// The returned function is safe to call more than once.
func (s *Signal) Connect(fn func()) func() {
	s.mu.Lock()
	s.next++
	id := s.next
	s.slots = append(s.slots, slot{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.disconnect(id) })
	}
}

func (s *Signal) disconnect(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sl := range s.slots {
		if sl.id == id {
			s.slots = append(s.slots[:i:i], s.slots[i+1:]...)
			return
		}
	}
}

// Emit calls every slot synchronously. Slots may disconnect themselves or
// others while being called; the set of slots is fixed when Emit starts.
func (s *Signal) Emit() {
	s.mu.Lock()
	slots := make([]slot, len(s.slots))
	copy(slots, s.slots)
	s.mu.Unlock()

	for _, sl := range slots {
		sl.fn()
	}
}

// Len reports the number of connected slots.
func (s *Signal) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}
