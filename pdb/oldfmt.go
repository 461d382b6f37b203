package pdb

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/andrew-torda/sugarclust/pdb/cmmn"
)

// Column positions in ATOM/HETATM records, zero based, end exclusive.
const (
	colSerial  = 6
	colName    = 12
	colAltLoc  = 16
	colResName = 17
	colChain   = 21
	colResNum  = 22
	colICode   = 26
	colX       = 30
	colOcc     = 54
	colBFac    = 60
	colElement = 76
)

// field cuts out line[a:b], stopping early on short lines.
func field(line string, a, b int) string {
	if a >= len(line) {
		return ""
	}
	if b > len(line) {
		b = len(line)
	}
	return strings.TrimSpace(line[a:b])
}

func byteAt(line string, i int) byte {
	if i >= len(line) {
		return ' '
	}
	return line[i]
}

// elementFromName guesses an element when columns 77-78 are empty.
// Old files put the element in the first two columns of the name,
// so " CA " is carbon and "FE  " is iron.
func elementFromName(raw string) string {
	if len(raw) < 2 {
		return strings.ToUpper(strings.TrimSpace(raw))
	}
	if raw[0] == ' ' || unicode.IsDigit(rune(raw[0])) {
		return strings.ToUpper(raw[1:2])
	}
	return strings.ToUpper(strings.TrimSpace(raw[:2]))
}

// parseAtom reads one ATOM or HETATM record.
func parseAtom(line string) (cmmn.Atom, error) {
	var a cmmn.Atom
	var err error
	if len(line) < colOcc {
		return a, fmt.Errorf("line too short (%d) for coordinates", len(line))
	}
	a.Het = strings.HasPrefix(line, "HETATM")
	if s := field(line, colSerial, colName-1); s != "" {
		if a.Serial, err = strconv.Atoi(s); err != nil {
			return a, fmt.Errorf("bad serial %q", s)
		}
	}
	raw := line[colName:colAltLoc]
	a.Name = strings.TrimSpace(raw)
	a.AltLoc = byteAt(line, colAltLoc)
	a.ResName = field(line, colResName, colResName+3)
	a.Chain = field(line, colChain, colChain+1)
	s := field(line, colResNum, colICode)
	if a.ResNum, err = strconv.Atoi(s); err != nil {
		return a, fmt.Errorf("bad residue number %q", s)
	}
	a.ICode = byteAt(line, colICode)
	var x [3]float64
	for i := range x {
		s := field(line, colX+8*i, colX+8*(i+1))
		if x[i], err = strconv.ParseFloat(s, 64); err != nil {
			return a, fmt.Errorf("bad coordinate %q", s)
		}
	}
	a.Pos = cmmn.Xyz{X: x[0], Y: x[1], Z: x[2]}
	a.Occ = 1
	if s := field(line, colOcc, colBFac); s != "" {
		if a.Occ, err = strconv.ParseFloat(s, 64); err != nil {
			return a, fmt.Errorf("bad occupancy %q", s)
		}
	}
	if s := field(line, colBFac, colBFac+6); s != "" {
		if a.BFac, err = strconv.ParseFloat(s, 64); err != nil {
			return a, fmt.Errorf("bad B-factor %q", s)
		}
	}
	if a.Element = strings.ToUpper(field(line, colElement, colElement+2)); a.Element == "" {
		a.Element = elementFromName(raw)
	}
	return a, nil
}

// readOld reads ATOM and HETATM records from the first model of a file
// in fixed column pdb format. Everything else is ignored.
func readOld(r io.Reader) (*cmmn.Structure, error) {
	s := new(cmmn.Structure)
	scnnr := bufio.NewScanner(r)
	n := 0
	for scnnr.Scan() {
		n++
		line := scnnr.Text()
		switch {
		case strings.HasPrefix(line, "ATOM  "), strings.HasPrefix(line, "HETATM"):
			a, err := parseAtom(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n, err)
			}
			s.Atoms = append(s.Atoms, a)
		case strings.HasPrefix(line, "ENDMDL"):
			return s, nil
		}
	}
	if err := scnnr.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", n, err)
	}
	return s, nil
}

// atomName puts an atom name where pdb files expect it. Four character
// names start in column 13, others in column 14 if the element has
// one letter.
func atomName(a *cmmn.Atom) string {
	if len(a.Name) < 4 && len(a.Element) < 2 {
		return fmt.Sprintf(" %-3s", a.Name)
	}
	return fmt.Sprintf("%-4s", a.Name)
}

func orSpace(b byte) byte {
	if b == 0 {
		return ' '
	}
	return b
}

// Write puts a structure out as ATOM/HETATM records followed by END.
// Chain names longer than one character are cut to the first one.
func Write(w io.Writer, s *cmmn.Structure) error {
	bw := bufio.NewWriter(w)
	for i := range s.Atoms {
		a := &s.Atoms[i]
		rec := "ATOM  "
		if a.Het {
			rec = "HETATM"
		}
		chain := " "
		if a.Chain != "" {
			chain = a.Chain[:1]
		}
		serial := a.Serial
		if serial == 0 {
			serial = i + 1
		}
		fmt.Fprintf(bw, "%-6s%5d %s%c%3s %s%4d%c   %8.3f%8.3f%8.3f%6.2f%6.2f          %2s\n",
			rec, serial%100000, atomName(a), orSpace(a.AltLoc), a.ResName, chain,
			a.ResNum, orSpace(a.ICode), a.Pos.X, a.Pos.Y, a.Pos.Z, a.Occ, a.BFac, a.Element)
	}
	fmt.Fprintln(bw, "END")
	return bw.Flush()
}
