package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize sets how many ids are remembered. A value <= 0 means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}
