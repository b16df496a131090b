package credstore

import "sync"

// MemorySlot is an in-process slot for tests and ephemeral sessions.
type MemorySlot struct {
	mu   sync.Mutex
	data []byte
}

// NewMemorySlot creates an empty MemorySlot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (m *MemorySlot) Read() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, nil
}

func (m *MemorySlot) Write(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *MemorySlot) Erase() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}
