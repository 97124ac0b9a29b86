package container

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/arloliu/avrokit/compress"
	"github.com/arloliu/avrokit/internal/options"
	"github.com/arloliu/avrokit/resolve"
	"github.com/arloliu/avrokit/schema"
)

// Defaults for writer and reader options.
const (
	DefaultBlockSize     = 16 * 1024
	DefaultMaxBlockBytes = 256 * 1024 * 1024
)

type config struct {
	logger   *zap.Logger
	registry *compress.Registry
	metrics  *Metrics

	// writer
	codec        string
	blockSize    int
	blockRecords int
	sync         *SyncMarker
	meta         map[string][]byte

	// reader
	readerSchema  *schema.Schema
	cache         *resolve.Cache
	maxBlockBytes int64
}

// Option configures a Writer or a Reader. Options that only concern one side are
// ignored by the other.
type Option = options.Option[*config]

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithRegistry sets the codec registry used to resolve codec names.
// The default is compress.Default().
func WithRegistry(reg *compress.Registry) Option {
	return options.New(func(c *config) error {
		if reg == nil {
			return fmt.Errorf("codec registry must not be nil")
		}
		c.registry = reg

		return nil
	})
}

// WithMetrics records block and record counters in m.
func WithMetrics(m *Metrics) Option {
	return options.NoError(func(c *config) {
		c.metrics = m
	})
}

// WithCodec selects the block codec by registered name. Writer only; the default
// is "null".
func WithCodec(name string) Option {
	return options.NoError(func(c *config) {
		c.codec = name
	})
}

// WithBlockSize sets the uncompressed payload size at which the writer flushes a
// block. Writer only.
func WithBlockSize(size int) Option {
	return options.New(func(c *config) error {
		if size <= 0 {
			return fmt.Errorf("invalid block size: %d", size)
		}
		c.blockSize = size

		return nil
	})
}

// WithBlockRecords caps the number of records per block; 0 means no cap.
// Writer only.
func WithBlockRecords(n int) Option {
	return options.New(func(c *config) error {
		if n < 0 {
			return fmt.Errorf("invalid block record count: %d", n)
		}
		c.blockRecords = n

		return nil
	})
}

// WithSyncMarker fixes the sync marker instead of generating a random one.
// Writer only.
func WithSyncMarker(sync SyncMarker) Option {
	return options.NoError(func(c *config) {
		c.sync = &sync
	})
}

// WithMetadata adds a user metadata entry to the header. Keys starting with
// "avro." are reserved. Writer only.
func WithMetadata(key string, value []byte) Option {
	return options.New(func(c *config) error {
		if key == "" || strings.HasPrefix(key, reservedPrefix) {
			return fmt.Errorf("invalid metadata key %q", key)
		}
		if c.meta == nil {
			c.meta = make(map[string][]byte)
		}
		c.meta[key] = value

		return nil
	})
}

// WithReaderSchema makes the reader return records shaped like s, resolved from
// the writer schema stored in the header. Reader only.
func WithReaderSchema(s *schema.Schema) Option {
	return options.NoError(func(c *config) {
		c.readerSchema = s
	})
}

// WithResolveCache resolves the reader schema through cache. Reader only.
func WithResolveCache(cache *resolve.Cache) Option {
	return options.NoError(func(c *config) {
		c.cache = cache
	})
}

// WithMaxBlockBytes rejects blocks whose stored payload is larger than n bytes.
// Reader only.
func WithMaxBlockBytes(n int64) Option {
	return options.New(func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("invalid max block bytes: %d", n)
		}
		c.maxBlockBytes = n

		return nil
	})
}

func newConfig(opts []Option) (*config, error) {
	cfg := &config{
		logger:        zap.NewNop(),
		registry:      compress.Default(),
		codec:         compress.Null,
		blockSize:     DefaultBlockSize,
		maxBlockBytes: DefaultMaxBlockBytes,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}
