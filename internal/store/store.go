package store

// SeenStore records which feed entries have already been handled so an
// alert is never delivered twice, across restarts included.
type SeenStore interface {
	// Seen reports whether the id has been handled
	Seen(id string) bool
	// Mark records the id as handled
	Mark(id string) error
	// Len returns the number of recorded ids
	Len() int
	// Close releases underlying resources
	Close() error
}

// New creates a store instance. An empty path selects the in-memory
// store, which forgets everything on restart and suits tests and dry
// runs only.
func New(path string) (SeenStore, error) {
	if path == "" {
		return NewMemoryStore(), nil
	}
	return NewFileStore(path)
}
