package clipboard

// Backend abstracts the OS clipboard so the watcher and restore writer can
// run against a fake in tests.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// ChangeCount returns a counter that increases every time the clipboard
	// contents change, including changes made through WriteItems.
	ChangeCount() uint64

	// ReadItems returns the current clipboard contents, one representation
	// map per logical item. Returns nil when the clipboard is empty or
	// carries no usable representation.
	ReadItems() ([]RepresentationMap, error)

	// WriteItems clears the clipboard and writes all items as a single
	// transaction. It returns the change count produced by the write so the
	// caller can mark it as already seen.
	WriteItems(items []RepresentationMap) (uint64, error)

	// Close releases any resources held by the backend.
	Close()
}
