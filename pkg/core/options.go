package core

import (
	"io"
	"log/slog"

	"stich/pkg/codec"
	"stich/pkg/progress"
)

// Option configures Create, Extract and List. Options that do not apply to
// an operation are ignored by it.
type Option func(*config)

type config struct {
	logger          *slog.Logger
	tracker         *progress.Tracker
	layout          Layout
	codec           codec.Codec
	noPreprocess    bool
	maxRounds       int
	maxDecodeRounds int
	baseNames       bool
}

func newConfig(opts []Option) config {
	cfg := config{
		maxRounds:       codec.DefaultMaxRounds,
		maxDecodeRounds: codec.DefaultMaxDecodeRounds,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.codec == nil {
		cfg.codec = codec.DefaultStage()
	}
	return cfg
}

// log returns the logger, falling back to a discard logger if nil.
func (c *config) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.logger
}

// WithLogger sets the logger for archive operations.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithProgress reports processed bytes to t.
// Create counts source bytes read; Extract counts bytes written.
func WithProgress(t *progress.Tracker) Option {
	return func(c *config) {
		c.tracker = t
	}
}

// WithLayout selects the record layout. The default is LayoutClassic.
func WithLayout(l Layout) Option {
	return func(c *config) {
		c.layout = l
	}
}

// WithCodec replaces the default zlib + xz stage.
func WithCodec(cd codec.Codec) Option {
	return func(c *config) {
		c.codec = cd
	}
}

// WithoutPreprocess disables text whitespace normalization, making every
// entry round-trip exactly.
func WithoutPreprocess() Option {
	return func(c *config) {
		c.noPreprocess = true
	}
}

// WithMaxRounds caps forward compression rounds per entry.
// Values outside [1, codec.RoundLimit] are clamped.
func WithMaxRounds(n int) Option {
	return func(c *config) {
		c.maxRounds = max(1, min(n, codec.RoundLimit))
	}
}

// WithMaxDecodeRounds caps inverse rounds for LayoutClassic extraction.
// Values below 1 select codec.DefaultMaxDecodeRounds.
func WithMaxDecodeRounds(n int) Option {
	return func(c *config) {
		c.maxDecodeRounds = n
	}
}

// WithBaseNames stores only the final path element of each source file
// instead of the path as given.
func WithBaseNames() Option {
	return func(c *config) {
		c.baseNames = true
	}
}
