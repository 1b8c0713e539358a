package trace

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// A Source is where a trace comes from.
type Source interface {
	// Open returns a reader for the uncompressed trace.
	Open() (io.ReadCloser, error)
	String() string
}

// FileSource is a trace stored in a file, optionally compressed with gzip, zstd or snappy (framing format).
type FileSource string

func (src FileSource) Open() (io.ReadCloser, error) {
	f, err := os.Open(string(src))
	if err != nil {
		return nil, err
	}
	rc, err := Decompress(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", src, err)
	}
	return readCloser{rc, multiCloser{rc, f}}, nil
}

func (src FileSource) String() string { return string(src) }

// ReaderSource is a trace that is already open, such as standard input. It can only be opened once.
type ReaderSource struct {
	Name string
	R    io.Reader

	opened bool
}

func (src *ReaderSource) Open() (io.ReadCloser, error) {
	if src.opened {
		return nil, errors.New("source has already been consumed")
	}
	src.opened = true
	return Decompress(src.R)
}

func (src *ReaderSource) String() string {
	if src.Name == "" {
		return "<reader>"
	}
	return src.Name
}

var (
	magicGzip   = []byte{0x1f, 0x8b}
	magicZstd   = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicSnappy = []byte("\xff\x06\x00\x00sNaPpY")
)

// Decompress detects the compression format of r by its magic bytes and returns a reader of the decompressed data.
// Uncompressed data is passed through unchanged. Closing the returned reader doesn't close r.
func Decompress(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	// Peek returns fewer bytes, and an error, for short inputs. Those can't be compressed streams.
	head, _ := br.Peek(len(magicSnappy))

	switch {
	case bytes.HasPrefix(head, magicGzip):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		return zr, nil
	case bytes.HasPrefix(head, magicZstd):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		return zstdCloser{zr}, nil
	case bytes.HasPrefix(head, magicSnappy):
		return io.NopCloser(snappy.NewReader(br)), nil
	default:
		return io.NopCloser(br), nil
	}
}

type zstdCloser struct {
	*zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.Decoder.Close()
	return nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

type multiCloser []io.Closer

func (mc multiCloser) Close() error {
	var errs []error
	for _, c := range mc {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
