// 23 Feb 2018
// Package submat reads a substitution matrix and scores pairs of
// residues with it. BLOSUM62 is built in.

package submat

import (
	"bufio"
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/andrew-torda/matrix"
)

// Submat is the export type. Its internals do not have to be exported.
type Submat struct {
	mat  *matrix.FMatrix2d
	cmap [128]int8
	unk  int8 // index used for characters we have not seen, X if present
}

const notset int8 = -1

//go:embed blosum62.txt
var blosum62Text string

var blosum62 = sync.OnceValues(func() (*Submat, error) {
	return ReadFrom(strings.NewReader(blosum62Text))
})

// Blosum62 returns the built in matrix. It is read once and shared, so
// do not change it.
func Blosum62() *Submat {
	s, err := blosum62()
	if err != nil {
		panic("built in blosum62 broken: " + err.Error())
	}
	return s
}

// String prints out a substitution matrix. Useful during debugging.
func (submat *Submat) String() string {
	var s strings.Builder
	cmap := submat.cmap[:]
	s.WriteString(fmt.Sprintf("%4s", " "))
	for c := '*'; c <= 'Z'; c++ {
		if cmap[c] != notset {
			fmt.Fprintf(&s, "%4s", string(c))
		}
	}
	s.WriteString("\n")
	for c := '*'; c <= 'Z'; c++ {
		if cmap[c] != notset {
			fmt.Fprintf(&s, "%4s", string(c))
			for d := '*'; d <= 'Z'; d++ {
				if cmap[d] != notset {
					fmt.Fprintf(&s, "%4.0f", submat.mat.Mat[cmap[c]][cmap[d]])
				}
			}
			s.WriteString("\n")
		}
	}
	return s.String()
}

// cbytes strips anything after the comment symbol and leading and
// trailing white space. It works directly in the scanner's buffer.
func cbytes(b []byte, cmmt byte) []byte {
	if i := bytes.IndexByte(b, cmmt); i >= 0 {
		b = b[:i]
	}
	return bytes.TrimSpace(b)
}

// The first non-comment line of the substitution matrix file
// contains a list of the allowed characters. Each field has to be
// one character long
func alfbtLine(inline []byte, submat *Submat) (int, error) {
	cmap := submat.cmap[:]
	for i := range cmap {
		cmap[i] = notset
	}
	f := bytes.Fields(inline)
	for _, c := range f {
		if len(c) != 1 {
			return 0, errors.New("alphabet line: expected a single character, got " + string(c))
		}
		if c[0] >= 128 {
			return 0, errors.New("alphabet line: saw a non-ascii character in " + string(inline))
		}
	}
	for i, c := range f {
		cmap[c[0]] = int8(i)
	}
	for i, c := range f { // If not set, set both upper and lower case
		l := (bytes.ToLower(c))[0] // This is safe, since we have checked
		u := (bytes.ToUpper(c))[0] // that c is one-byte long
		if cmap[l] == notset {
			cmap[l] = int8(i)
		}
		if cmap[u] == notset {
			cmap[u] = int8(i)
		}
	}
	submat.unk = cmap['X']
	return len(f), nil
}

// ReadFrom reads a substitution matrix in the ncbi format. Lines
// starting with # are comments. Then comes a line with the alphabet
// and one line per letter.
func ReadFrom(r io.Reader) (*Submat, error) {
	submat := new(Submat)
	scnr := bufio.NewScanner(r)
	var line []byte
	for len(line) == 0 && scnr.Scan() {
		line = cbytes(scnr.Bytes(), '#')
	}
	if len(line) == 0 {
		return nil, errors.New("substitution matrix: no alphabet line")
	}
	nAlfbt, err := alfbtLine(line, submat)
	if err != nil {
		return nil, err
	}
	submat.mat = matrix.NewFMatrix2d(nAlfbt, nAlfbt)
	nc := 0
	for scnr.Scan() {
		line := cbytes(scnr.Bytes(), '#')
		if len(line) == 0 {
			continue
		}
		fields := bytes.Fields(line)
		if len(fields) != nAlfbt+1 {
			return nil, errors.New("wrong number of items on line:\n" + string(line))
		}
		if fields[0][0] >= 128 || submat.cmap[fields[0][0]] == notset {
			return nil, errors.New("invalid character on line " + string(line))
		}
		i := submat.cmap[fields[0][0]]
		for j := 0; j < nAlfbt; j++ {
			f, err := strconv.ParseFloat(string(fields[j+1]), 32)
			if err != nil {
				return nil, fmt.Errorf("row %c: %w", fields[0][0], err)
			}
			x := float32(f)
			submat.mat.Mat[i][j], submat.mat.Mat[j][i] = x, x
		}
		nc++
	}
	if err := scnr.Err(); err != nil {
		return nil, err
	}
	if nc != nAlfbt {
		return nil, fmt.Errorf("found %d rows for %d letters", nc, nAlfbt)
	}
	return submat, nil
}

// Read will read a substitution matrix from a filename.
func Read(fname string) (*Submat, error) {
	fp, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	s, err := ReadFrom(fp)
	if err != nil {
		return nil, fmt.Errorf("reading from %s: %w", fname, err)
	}
	return s, nil
}

func (submat *Submat) index(a byte) int8 {
	if a >= 128 || submat.cmap[a] == notset {
		return submat.unk
	}
	return submat.cmap[a]
}

// Score returns the similarity score of bytes a and b, given
// a specific scoring matrix. Characters the matrix does not know are
// scored as X, or zero if there is no X.
func (submat *Submat) Score(a, b byte) float32 {
	i, j := submat.index(a), submat.index(b)
	if i == notset || j == notset {
		return 0
	}
	return submat.mat.Mat[i][j]
}

// ScoreSeqs will take two sequences and calculate a similarity matrix
// based on the substitution matrix.
// We return an M x N matrix, where M and N are the lengths of first
// and second sequences respectively.
func (submat *Submat) ScoreSeqs(s, t []byte) *matrix.FMatrix2d {
	scrMat := matrix.NewFMatrix2d(len(s), len(t))
	mat := scrMat.Mat
	for i, cs := range s {
		for j, ct := range t {
			mat[i][j] = submat.Score(cs, ct)
		}
	}
	return scrMat
}
