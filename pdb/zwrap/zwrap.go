// Package zwrap takes a file or http body and, if the contents are
// gzipped, wraps it so reads come from the decompressor. Close shuts
// the decompressor, then the underlying file.
package zwrap

import (
	"compress/gzip"
	"errors"
	"io"
	"os"
)

// Reader is what we return. If zrdr is nil, reads go straight to src.
type Reader struct {
	src  io.ReadCloser
	zrdr *gzip.Reader
}

// Close closes the decompressor, then the underlying ReadCloser.
func (r *Reader) Close() error {
	if r.zrdr == nil {
		return r.src.Close()
	}
	return errors.Join(r.zrdr.Close(), r.src.Close())
}

// Read makes sure we read from the compressed stream and
// not the underlying file stream.
func (r *Reader) Read(p []byte) (int, error) {
	if r.zrdr != nil {
		return r.zrdr.Read(p)
	}
	return r.src.Read(p)
}

// Compressed says if we are decompressing.
func (r *Reader) Compressed() bool { return r.zrdr != nil }

// Wrap insists the source is gzipped. It is what one wants for an
// http stream from a site that only serves .gz files.
func Wrap(src io.ReadCloser) (*Reader, error) {
	z, err := gzip.NewReader(src)
	if err != nil {
		return nil, err
	}
	return &Reader{src: src, zrdr: z}, nil
}

// ReadSeekCloser is a file, or something that behaves like one.
type ReadSeekCloser interface {
	io.Reader
	io.Seeker
	io.Closer
}

// WrapMaybe decides if the underlying stream is compressed and wraps it
// if necessary. If it is not compressed, we seek back to the start.
// You lose the ability to seek on what comes back.
func WrapMaybe(src ReadSeekCloser) (*Reader, error) {
	if z, err := gzip.NewReader(src); err == nil {
		return &Reader{src: src, zrdr: z}, nil
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return &Reader{src: src}, nil
}

// Open opens a file by name and calls WrapMaybe on it.
func Open(fname string) (*Reader, error) {
	fp, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	r, err := WrapMaybe(fp)
	if err != nil {
		fp.Close()
		return nil, err
	}
	return r, nil
}
