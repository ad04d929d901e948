package emailaddr

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

// Writer emits a sequence of encoded addresses back to back. Each frame is
// exactly the single-value encoding, so a reader can skip or split frames
// without scanning payloads.
type Writer struct {
	w   *bufio.Writer
	buf []byte
	n   int
}

// NewWriter returns a Writer that buffers output to w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write appends one encoded address to the stream.
func (sw *Writer) Write(a Address) error {
	b, err := a.AppendBinary(sw.buf[:0])
	if err != nil {
		return err
	}
	sw.buf = b
	if _, err := sw.w.Write(b); err != nil {
		return err
	}
	sw.n++
	return nil
}

// Count returns the number of addresses written so far.
func (sw *Writer) Count() int { return sw.n }

// Flush writes any buffered frames to the underlying writer.
func (sw *Writer) Flush() error { return sw.w.Flush() }

// Reader decodes a stream produced by Writer.
type Reader struct {
	r   *bufio.Reader
	hdr [headerSize]byte
	buf []byte
}

// NewReader returns a Reader consuming frames from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next address. It returns io.EOF at a clean end of stream
// and a *CorruptEncodingError when the stream ends mid-frame or a frame
// fails to decode.
func (sr *Reader) Next() (Address, error) {
	if _, err := io.ReadFull(sr.r, sr.hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Address{}, corrupt("truncated frame header")
		}
		return Address{}, err
	}
	n := binary.BigEndian.Uint32(sr.hdr[:])
	if n > MaxLength {
		return Address{}, corrupt("frame length %d exceeds maximum %d", n, MaxLength)
	}
	if cap(sr.buf) < int(n) {
		sr.buf = make([]byte, n)
	}
	sr.buf = sr.buf[:n]
	if _, err := io.ReadFull(sr.r, sr.buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Address{}, corrupt("frame declares %d bytes but stream ended", n)
		}
		return Address{}, err
	}
	return decodePayload(sr.buf)
}

// ReadAll drains the stream.
func (sr *Reader) ReadAll() ([]Address, error) {
	var out []Address
	for {
		a, err := sr.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, a)
	}
}
