package repository

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithPrioritySeed fixes the seed used for treap node priorities.
func WithPrioritySeed(seed uint64) Option {
	return func(s *TreapStore) {
		s.seed = seed
	}
}
