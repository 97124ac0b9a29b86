package container

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// maxMetaEntry bounds a single metadata key or value.
const maxMetaEntry = 16 << 20

// byteReader reads container framing from a stream and tracks the offset.
type byteReader struct {
	r   *bufio.Reader
	off int64
}

func newByteReader(r io.Reader) *byteReader {
	return &byteReader{r: bufio.NewReaderSize(r, 64*1024)}
}

func (b *byteReader) ReadByte() (byte, error) {
	c, err := b.r.ReadByte()
	if err == nil {
		b.off++
	}

	return c, err
}

// readLong reads a zigzag varint. io.EOF is returned only when no byte was
// available; a varint cut short yields io.ErrUnexpectedEOF.
func (b *byteReader) readLong() (int64, error) {
	start := b.off
	n, err := binary.ReadVarint(b)
	if err != nil {
		if errors.Is(err, io.EOF) && b.off != start {
			return 0, io.ErrUnexpectedEOF
		}

		return 0, err
	}

	return n, nil
}

func (b *byteReader) readFull(p []byte) error {
	n, err := io.ReadFull(b.r, p)
	b.off += int64(n)

	return err
}

func (b *byteReader) readBytes() ([]byte, error) {
	n, err := b.readLong()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}

		return nil, err
	}
	if n < 0 || n > maxMetaEntry {
		return nil, fmt.Errorf("invalid length %d", n)
	}

	p := make([]byte, n)
	if err := b.readFull(p); err != nil {
		return nil, err
	}

	return p, nil
}
