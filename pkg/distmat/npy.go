package distmat

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"

	"github.com/edsrzf/mmap-go"
)

// The .npy format is a magic string, a version, a little endian header
// length and a python dict literal describing the array, padded so the
// data starts on a multiple of 64 bytes. We only do 2D '<f8' in C order.
const npyMagic = "\x93NUMPY"

var ErrNpy = errors.New("not a matrix we can read")

// WriteNpy writes version 1.0 .npy, readable by numpy.load.
func (m *Matrix) WriteNpy(w io.Writer) error {
	hdr := fmt.Sprintf("{'descr': '<f8', 'fortran_order': False, 'shape': (%d, %d), }", m.n, m.n)
	const pre = len(npyMagic) + 2 + 2
	pad := 64 - (pre+len(hdr)+1)%64
	if pad == 64 {
		pad = 0
	}
	hdr += string(bytes.Repeat([]byte{' '}, pad)) + "\n"

	bw := bufio.NewWriter(w)
	bw.WriteString(npyMagic)
	bw.Write([]byte{1, 0})
	binary.Write(bw, binary.LittleEndian, uint16(len(hdr)))
	bw.WriteString(hdr)
	var b [8]byte
	for _, v := range m.data {
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
		bw.Write(b[:])
	}
	return bw.Flush()
}

var (
	descrRE = regexp.MustCompile(`'descr':\s*'([^']*)'`)
	fortRE  = regexp.MustCompile(`'fortran_order':\s*(True|False)`)
	shapeRE = regexp.MustCompile(`'shape':\s*\((\d+),\s*(\d+),?\s*\)`)
)

// parseNpy reads from a complete .npy image.
func parseNpy(b []byte) (*Matrix, error) {
	if len(b) < len(npyMagic)+4 || string(b[:len(npyMagic)]) != npyMagic {
		return nil, fmt.Errorf("%w: no magic", ErrNpy)
	}
	major := b[len(npyMagic)]
	b = b[len(npyMagic)+2:]
	var hlen int
	switch major {
	case 1:
		hlen = int(binary.LittleEndian.Uint16(b))
		b = b[2:]
	case 2, 3:
		if len(b) < 4 {
			return nil, fmt.Errorf("%w: short header", ErrNpy)
		}
		hlen = int(binary.LittleEndian.Uint32(b))
		b = b[4:]
	default:
		return nil, fmt.Errorf("%w: version %d", ErrNpy, major)
	}
	if hlen > len(b) {
		return nil, fmt.Errorf("%w: short header", ErrNpy)
	}
	hdr, b := string(b[:hlen]), b[hlen:]

	if d := descrRE.FindStringSubmatch(hdr); d == nil || d[1] != "<f8" {
		return nil, fmt.Errorf("%w: want '<f8' in %q", ErrNpy, hdr)
	}
	if f := fortRE.FindStringSubmatch(hdr); f == nil || f[1] != "False" {
		return nil, fmt.Errorf("%w: want C order", ErrNpy)
	}
	s := shapeRE.FindStringSubmatch(hdr)
	if s == nil {
		return nil, fmt.Errorf("%w: want 2D shape in %q", ErrNpy, hdr)
	}
	nr, _ := strconv.Atoi(s[1])
	nc, _ := strconv.Atoi(s[2])
	if nr != nc {
		return nil, fmt.Errorf("%w: %d x %d is not square", ErrNpy, nr, nc)
	}
	if len(b) != nr*nc*8 {
		return nil, fmt.Errorf("%w: %d bytes of data for %d x %d", ErrNpy, len(b), nr, nc)
	}
	m := New(nr)
	for i := range m.data {
		m.data[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return m, nil
}

// ReadNpy reads a whole stream.
func ReadNpy(r io.Reader) (*Matrix, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parseNpy(b)
}

// Save writes the matrix to a .npy file.
func (m *Matrix) Save(fname string) error {
	fp, err := os.Create(fname)
	if err != nil {
		return err
	}
	if err := m.WriteNpy(fp); err != nil {
		fp.Close()
		return fmt.Errorf("writing %s: %w", fname, err)
	}
	return fp.Close()
}

// Load maps a .npy file and copies the matrix out of it.
func Load(fname string) (*Matrix, error) {
	var fp *os.File
	var err error
	var mm mmap.MMap
	if fp, err = os.Open(fname); err != nil {
		return nil, err
	}
	defer fp.Close()
	if fi, err := fp.Stat(); err != nil {
		return nil, err
	} else if fi.Size() == 0 {
		return nil, fmt.Errorf("%s: %w: empty file", fname, ErrNpy)
	}
	if mm, err = mmap.Map(fp, mmap.RDONLY, 0); err != nil {
		return nil, err
	}
	defer mm.Unmap()
	m, err := parseNpy(mm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	return m, nil
}
