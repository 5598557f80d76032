package clipboard

import "sync"

// MemoryBackend is an in-process clipboard used in tests and headless runs.
// SetItems simulates another application copying to the clipboard.
type MemoryBackend struct {
	mu    sync.Mutex
	count uint64
	items []RepresentationMap
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Name() string { return "memory" }

// SetItems replaces the clipboard contents as an external application would,
// bumping the change count.
func (b *MemoryBackend) SetItems(items []RepresentationMap) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = cloneItems(items)
	b.count++
	return b.count
}

func (b *MemoryBackend) ChangeCount() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *MemoryBackend) ReadItems() ([]RepresentationMap, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneItems(b.items), nil
}

func (b *MemoryBackend) WriteItems(items []RepresentationMap) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = cloneItems(items)
	b.count++
	return b.count, nil
}

func (b *MemoryBackend) Close() {}
