package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize sets the maximum number of game IDs to keep in memory.
// If maxSize > 0 the oldest ID is evicted once full; otherwise the
// deduper grows without bound.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}
