package compress

import (
	"fmt"
	"sort"
	"sync"
)

// Codec names used in the container header's avro.codec entry.
const (
	Null      = "null"
	Deflate   = "deflate"
	Snappy    = "snappy"
	Zstandard = "zstandard"
	LZ4       = "lz4"
)

// Compressor compresses one container block payload.
type Compressor interface {
	// Compress returns the compressed form of data.
	//
	// The returned slice may alias data (the null codec does), so callers must
	// not modify data while the result is in use.
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor.
type Decompressor interface {
	// Decompress returns the original block payload.
	//
	// It returns an error if data is corrupted or was produced by a different
	// algorithm. The uncompressed size is not known up front; each codec either
	// carries it in its own framing or grows its output buffer as needed.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
//
// Implementations must be safe for concurrent use.
type Codec interface {
	Compressor
	Decompressor
}

// CompressionStats describes one compression operation.
type CompressionStats struct {
	// Codec is the registered codec name.
	Codec string

	OriginalSize   int64
	CompressedSize int64
}

// CompressionRatio returns compressed size / original size, or 0 for empty input.
func (s CompressionStats) CompressionRatio() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the space savings as a percentage.
func (s CompressionStats) SpaceSavings() float64 {
	return (1.0 - s.CompressionRatio()) * 100.0
}

// Registry maps codec names to codecs. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Codec
}

// NewRegistry creates a registry preloaded with the built-in codecs:
// null, deflate, snappy, zstandard and lz4.
func NewRegistry() *Registry {
	r := NewEmptyRegistry()
	r.codecs[Null] = NewNoOpCompressor()
	r.codecs[Deflate] = NewDeflateCompressor()
	r.codecs[Snappy] = NewSnappyCompressor()
	r.codecs[Zstandard] = NewZstdCompressor()
	r.codecs[LZ4] = NewLZ4Compressor()

	return r
}

// NewEmptyRegistry creates a registry with no codecs at all.
func NewEmptyRegistry() *Registry {
	return &Registry{codecs: make(map[string]Codec)}
}

// Register adds or replaces the codec for name.
func (r *Registry) Register(name string, c Codec) error {
	if name == "" {
		return fmt.Errorf("codec name must not be empty")
	}
	if c == nil {
		return fmt.Errorf("codec %q is nil", name)
	}

	r.mu.Lock()
	r.codecs[name] = c
	r.mu.Unlock()

	return nil
}

// Lookup returns the codec registered under name.
func (r *Registry) Lookup(name string) (Codec, bool) {
	r.mu.RLock()
	c, ok := r.codecs[name]
	r.mu.RUnlock()

	return c, ok
}

// Names returns the registered codec names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.codecs))
	for name := range r.codecs {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)

	return names
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used when no registry is supplied.
func Default() *Registry {
	return defaultRegistry
}

// GetCodec retrieves a codec from the default registry.
func GetCodec(name string) (Codec, error) {
	if c, ok := defaultRegistry.Lookup(name); ok {
		return c, nil
	}

	return nil, fmt.Errorf("unsupported codec: %q", name)
}
