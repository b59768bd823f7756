package validator

import "log/slog"

// Option configures the engine.
type Option func(*Options)

// PoolOptions configures one keyed executor pool.
type PoolOptions struct {
	// Block suspends a borrow until capacity frees instead of failing fast.
	Block bool

	// LIFO reuses the most recently returned instance first. FIFO order is
	// used when false.
	LIFO bool

	// MaxTotal bounds concurrently borrowed instances across all keys.
	MaxTotal int

	// MaxPerKey bounds concurrently borrowed instances per artifact key.
	MaxPerKey int
}

// Options holds all configuration for the engine.
type Options struct {
	// Expectations enables expectation-based suppression for test fixtures.
	Expectations bool

	// SuppressNotLoaded keeps reports renderable when some validation
	// artifacts failed to load; the misses are still reported as warnings.
	SuppressNotLoaded bool

	// CheckerPool configures the pool of check executors.
	CheckerPool PoolOptions

	// RendererPool configures the pool of presentation executors.
	RendererPool PoolOptions

	// Logger receives engine diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		Expectations:      false,
		SuppressNotLoaded: false,
		CheckerPool: PoolOptions{
			Block:     true,
			LIFO:      true,
			MaxTotal:  64,
			MaxPerKey: 16,
		},
		RendererPool: PoolOptions{
			Block:     true,
			LIFO:      true,
			MaxTotal:  16,
			MaxPerKey: 4,
		},
	}
}

// NewOptions applies opts on top of the defaults.
func NewOptions(opts ...Option) *Options {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return options
}

// WithExpectations enables expectation-based suppression. Intended for
// self-testing of validation artifacts, not production validation.
func WithExpectations(enable bool) Option {
	return func(o *Options) {
		o.Expectations = enable
	}
}

// WithSuppressNotLoaded treats missing validation artifacts as non-fatal.
func WithSuppressNotLoaded(enable bool) Option {
	return func(o *Options) {
		o.SuppressNotLoaded = enable
	}
}

// WithCheckerPool overrides checker pool settings.
func WithCheckerPool(opts PoolOptions) Option {
	return func(o *Options) {
		o.CheckerPool = opts
	}
}

// WithRendererPool overrides renderer pool settings.
func WithRendererPool(opts PoolOptions) Option {
	return func(o *Options) {
		o.RendererPool = opts
	}
}

// WithLogger sets the logger used by the engine and its collaborators.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}
