package codec

import (
	"fmt"

	"github.com/arloliu/avrokit/internal/options"
)

// DefaultMaxDepth bounds value nesting during encode and decode.
const DefaultMaxDepth = 512

type config struct {
	maxDepth int
}

// Option configures encoding and decoding.
type Option = options.Option[*config]

// WithMaxDepth bounds how deeply values may nest. Recursive schemas let a few
// bytes of input describe arbitrarily deep values; the bound turns that into a
// DepthExceeded error instead of stack exhaustion.
func WithMaxDepth(depth int) Option {
	return options.New(func(c *config) error {
		if depth <= 0 {
			return fmt.Errorf("invalid max depth: %d", depth)
		}
		c.maxDepth = depth

		return nil
	})
}

func newConfig(opts []Option) (*config, error) {
	cfg := &config{maxDepth: DefaultMaxDepth}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}
