package codec

import (
	"github.com/arloliu/avrokit/encoding"
	"github.com/arloliu/avrokit/resolve"
	"github.com/arloliu/avrokit/schema"
	"github.com/arloliu/avrokit/value"
)

// Decoder reads a sequence of concatenated values from one buffer, such as the
// payload of a container block.
//
// Note: Decoder is NOT thread-safe.
type Decoder struct {
	r        *encoding.Reader
	plain    *decoder
	resolved *resolvedDecoder
	root     schema.Node
	plan     *resolve.Node
}

// NewDecoder creates a Decoder that reads values of schema s from data.
func NewDecoder(s *schema.Schema, data []byte, opts ...Option) (*Decoder, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	r := encoding.NewReader(data)

	return &Decoder{
		r:     r,
		plain: &decoder{s: s, r: r, maxDepth: cfg.maxDepth},
		root:  s.Root(),
	}, nil
}

// NewResolvedDecoder creates a Decoder that reads values written with
// res.Writer() and returns them shaped like res.Reader().
func NewResolvedDecoder(res *resolve.Resolved, data []byte, opts ...Option) (*Decoder, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	r := encoding.NewReader(data)
	rd := newResolvedDecoder(res, r, cfg.maxDepth)

	return &Decoder{r: r, plain: rd.plain, resolved: rd, plan: res.Root()}, nil
}

// More reports whether unread bytes remain.
func (d *Decoder) More() bool { return !d.r.Done() }

// Offset returns the position of the next value in the buffer.
func (d *Decoder) Offset() int { return d.r.Offset() }

// Next decodes the next value. Error offsets are relative to the start of the
// buffer passed to the constructor.
func (d *Decoder) Next() (value.Value, error) {
	if d.resolved != nil {
		return d.resolved.decode(d.plan, "", 0)
	}

	return d.plain.decode(d.root, "", 0)
}

// Skip advances past the next value without materializing it.
func (d *Decoder) Skip() error {
	return skip(d.plain, d.plain.s.Root(), "", 0)
}

// Reset points the decoder at a new buffer, keeping its schema.
func (d *Decoder) Reset(data []byte) {
	d.r.Reset(data)
}
