// Package brokenio is a wrapper around an io.Reader which misbehaves on
// request. Tests wrap a file, or a strings.Reader, and check that
// coordinate and matrix readers report a failed read instead of
// quietly returning half a structure.
//
// Typical use:
//
//	rdr := brokenio.NewReader(strings.NewReader(s), 1)
//	rdr.FailAfter(100)
//
// Everything then functions as before, but reading stops with
// ErrInjected after 100 bytes.
// When we introduce a failure on the first read, we return io.EOF and
// no error. This is what one often sees on a zero length file.
package brokenio

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
)

// ErrInjected is returned by reads we have decided should fail.
var ErrInjected = errors.New("brokenio: injected read failure")

// A Reader has variables controlling the frequency of errors.
// The probabilities are the fraction of reads which go wrong, so a
// value of 0.05 means failure in 5% of the cases.
type Reader struct {
	src          io.Reader
	rnd          *rand.Rand
	probZeroFile float64 // Probability of returning a zero length file
	probFail     float64
	fracFail     float64 // how much of a failed buffer to wipe out
	failAfter    int     // fail once this many bytes went through, if >= 0
	nCalled      int
	nByte        int
}

// NewReader returns a new Reader, a wrapper around the old one. The
// seed makes the random failures repeatable.
func NewReader(src io.Reader, seed uint64) *Reader {
	return &Reader{
		src:       src,
		rnd:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		fracFail:  0.5,
		failAfter: -1,
	}
}

// SetProbZeroFile sets the rate at which we simply return 0 bytes on the
// first read. It must be a value from 0 to 1. We do not check if the
// argument is valid.
func (r *Reader) SetProbZeroFile(prob float64) { r.probZeroFile = prob }

// SetProbFail sets the probability of a read failure.
// It must be between zero and 1.
func (r *Reader) SetProbFail(prob float64) { r.probFail = prob }

// SetFracFail sets the amount of a buffer which is trashed on failure.
func (r *Reader) SetFracFail(frac float64) { r.fracFail = frac }

// FailAfter makes every read fail once n bytes have been delivered.
// The read which crosses n is cut short.
func (r *Reader) FailAfter(n int) { r.failAfter = n }

// Stats says how often Read was called and how many bytes went through.
func (r *Reader) Stats() (calls, nbyte int) { return r.nCalled, r.nByte }

// String is for verbose test output.
func (r *Reader) String() string {
	return fmt.Sprintf("%d calls and %d bytes", r.nCalled, r.nByte)
}

// trashSlice wipes out the second part of a slice.
// The amount to wipe out is given by a fraction, so 0.3
// will wipe out the second 30 % of a slice
func trashSlice(p []byte, frac float64) int {
	nkeep := int(float64(len(p)) * (1. - frac))
	clear(p[nkeep:])
	return nkeep
}

// Read passes reads to the wrapped reader and sums up the amount of data
// that has gone through.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if r.nCalled == 0 && r.probZeroFile > 0 && r.rnd.Float64() < r.probZeroFile {
		r.nCalled++
		return 0, io.EOF
	}
	if r.failAfter >= 0 {
		left := r.failAfter - r.nByte
		if left <= 0 {
			r.nCalled++
			return 0, ErrInjected
		}
		if len(p) > left {
			p = p[:left]
		}
	}
	n, err := r.src.Read(p)
	r.nCalled++
	r.nByte += n
	if n > 0 && r.probFail > 0 && r.rnd.Float64() < r.probFail && r.fracFail > 0 {
		m := trashSlice(p[:n], r.fracFail)
		if m < n {
			return m, ErrInjected
		}
	}
	return n, err
}

// Close closes the wrapped reader if it can be closed.
func (r *Reader) Close() error {
	if c, ok := r.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
