package mmcif

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Table is one category from a file, like _atom_site. Names are the
// part after the dot, so "Cartn_x", not "_atom_site.Cartn_x". Every row
// has len(Names) values. A category written as plain data items, without
// loop_, comes back as a table with one row.
type Table struct {
	Names []string
	Rows  [][]string
	index map[string]int
}

// Col returns the column for name or -1 if the table does not have it.
func (t *Table) Col(name string) int {
	if t.index == nil {
		t.index = make(map[string]int, len(t.Names))
		for i, n := range t.Names {
			t.index[n] = i
		}
	}
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Get returns the value in a row under column name. Missing columns
// give an empty string.
func (t *Table) Get(row int, name string) string {
	i := t.Col(name)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	return t.Rows[row][i]
}

// Data is what we return. The key is the category, "_atom_site",
// "_chem_comp_atom" and so on.
type Data map[string]*Table

// IsNull says whether a value is one of the two cif placeholders for
// nothing, "?" or ".".
func IsNull(s string) bool { return s == "?" || s == "." }

// cmmtScanner is a wrapper around bufio.Scanner that will ignore lines
// starting with a comment character. It also counts newlines in
// scanner.n, so we can print out the line number in error messages.
type cmmtScanner struct {
	*bufio.Scanner           // standard library scanner
	l_err          readError // fill this out as soon as an error happens
	ctoken         []byte    // Store the bytes that will be returned by cbytes()
	n              int       // line number in the mmcif file
	cmmt           byte      // Comment character
	Ok             bool      // Are we OK or have we had an error ?
}

// newCmmtScanner is a wrapper around scanner, but
//   - jumps over blank lines
//   - jumps over lines starting with a comment character
func newCmmtScanner(r io.Reader, cmmt byte) cmmtScanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024) // some cif lines are long
	return cmmtScanner{
		Scanner: s,
		cmmt:    cmmt,
		Ok:      true,
	}
}

// cscan is a wrapper around the library Scan(). It adds a newline counter
// for error messages. It jumps over blank lines and lines starting
// with a comment character. Comment characters are only recognised as the
// first character, since they are legitimate elsewhere in the text.
// On EOF, ctoken is nil and we return false, but Ok stays true.
func (s *cmmtScanner) cscan() bool {
	if !s.Ok {
		s.ctoken = nil
		return false
	}
	for s.Scan() {
		s.n++
		b := s.Bytes()
		if len(b) == 0 || b[0] == s.cmmt {
			continue
		}
		s.ctoken = b
		return true
	}
	s.ctoken = nil
	if err := s.Err(); err != nil {
		s.fill(err.Error(), true)
	}
	return false
}

// cbytes is like Bytes from the library, but is only ever a line we
// want to look at.
func (s *cmmtScanner) cbytes() []byte {
	return s.ctoken
}

// Reader reads the categories it has been asked for and throws the
// rest away.
type Reader struct {
	cmmtScanner
	wanted  map[string]bool
	line    []token // tokens from the current line
	scrtch  []token
	pending []token // pushed back tokens, last one is next
	headers []string
}

// NewReader returns an object to read mmcif files.
// It is given a reader, so the caller must have decided if it is
// a file, compressed file, http source, whatever.
// categories look like "_atom_site". If there are none, everything
// is kept.
func NewReader(r io.Reader, categories ...string) *Reader {
	rd := &Reader{
		cmmtScanner: newCmmtScanner(r, '#'),
		wanted:      make(map[string]bool, len(categories)),
	}
	for _, c := range categories {
		rd.wanted[c] = true
	}
	return rd
}

// Read is the easy way in. Read everything from r and keep the listed
// categories.
func Read(r io.Reader, categories ...string) (Data, error) {
	return NewReader(r, categories...).Read()
}

func (rd *Reader) keep(category string) bool {
	return len(rd.wanted) == 0 || rd.wanted[category]
}

// nextLine fills rd.line with the tokens from the next interesting line.
// A line starting with ; is a text field which runs until the next line
// starting with ;. This comes back as one token.
func (rd *Reader) nextLine() bool {
	if !rd.cscan() {
		return false
	}
	b := rd.cbytes()
	if b[0] == ';' {
		var sb strings.Builder
		sb.Write(b[1:])
		start := rd.n
		for {
			if !rd.Scan() {
				rd.fill("text field starting at line "+strconv.Itoa(start)+" never finished", true)
				return false
			}
			rd.n++
			t := rd.Bytes()
			if len(t) > 0 && t[0] == ';' {
				break
			}
			sb.WriteByte('\n')
			sb.Write(t)
		}
		rd.line = append(rd.scrtch[:0], token{sb.String(), true})
		return true
	}
	t, err := splitCifLine(b, rd.scrtch)
	if err != nil {
		rd.fill(err.Error(), true)
		return false
	}
	for i := range t { // a # after white space starts a comment
		if !t[i].quoted && t[i].s[0] == '#' {
			t = t[:i]
			break
		}
	}
	rd.scrtch = t
	rd.line = t
	return true
}

// next returns the next token and false at the end of the file.
func (rd *Reader) next() (token, bool) {
	if n := len(rd.pending); n > 0 {
		t := rd.pending[n-1]
		rd.pending = rd.pending[:n-1]
		return t, true
	}
	for len(rd.line) == 0 {
		if !rd.nextLine() {
			return token{}, false
		}
	}
	t := rd.line[0]
	rd.line = rd.line[1:]
	return t, true
}

func (rd *Reader) pushback(t token) { rd.pending = append(rd.pending, t) }

// special is true for tokens which end a table.
func special(t token) bool {
	if t.quoted {
		return false
	}
	return t.s[0] == '_' || t.s == "loop_" ||
		strings.HasPrefix(t.s, "data_") || strings.HasPrefix(t.s, "save_")
}

// splitName takes "_atom_site.Cartn_x" and gives "_atom_site", "Cartn_x".
// Old style names without a dot are their own category.
func splitName(s string) (string, string) {
	if i := strings.IndexByte(s, '.'); i > 0 {
		return s[:i], s[i+1:]
	}
	return s, s
}

// stateFn is the type of state function. It returns the next
// state function that should act on its input.
type stateFn func(*Reader, Data) stateFn

// stateTop looks at the next token and decides what state to go to.
func stateTop(rd *Reader, _ Data) stateFn {
	t, ok := rd.next()
	switch {
	case !ok:
		return nil
	case t.quoted:
		rd.fill("value \""+firstPart(t.s)+"\" without a name", true)
		return nil
	case t.s == "loop_":
		return stateLoopHdr
	case strings.HasPrefix(t.s, "data_"), strings.HasPrefix(t.s, "save_"):
		return stateTop
	case t.s[0] == '_':
		rd.pushback(t)
		return stateDItem
	default:
		rd.fill("do not know what to do with \""+firstPart(t.s)+"\"", true)
		return nil
	}
}

// stateLoopHdr gets the headers from a loop directive and decides if
// the table is to be kept.
func stateLoopHdr(rd *Reader, _ Data) stateFn {
	rd.headers = rd.headers[:0]
	for {
		t, ok := rd.next()
		if !ok {
			break
		}
		if t.quoted || t.s[0] != '_' {
			rd.pushback(t)
			break
		}
		rd.headers = append(rd.headers, t.s)
	}
	if len(rd.headers) == 0 {
		rd.fill("no contents found while reading loop headers", true)
		return nil
	}
	if cat, _ := splitName(rd.headers[0]); rd.keep(cat) {
		return stateLoopTable
	}
	return stateSkipLoopTable
}

// loopValues collects values until something special comes.
func loopValues(rd *Reader, save bool) []string {
	var vals []string
	n := 0
	for {
		t, ok := rd.next()
		if !ok {
			break
		}
		if special(t) {
			rd.pushback(t)
			break
		}
		if save {
			vals = append(vals, t.s)
		}
		n++
	}
	if n == 0 {
		rd.fill("empty table "+rd.headers[0], true)
		return nil
	}
	if n%len(rd.headers) != 0 {
		rd.fill("table "+rd.headers[0]+" has "+strconv.Itoa(n)+" values for "+
			strconv.Itoa(len(rd.headers))+" columns", true)
		return nil
	}
	return vals
}

// stateLoopTable reads the values of a table and cuts them into rows.
func stateLoopTable(rd *Reader, d Data) stateFn {
	vals := loopValues(rd, true)
	if !rd.Ok {
		return nil
	}
	cat, _ := splitName(rd.headers[0])
	tbl := &Table{Names: make([]string, len(rd.headers))}
	for i, h := range rd.headers {
		c, name := splitName(h)
		if c != cat {
			rd.fill("loop mixes "+cat+" and "+c, true)
			return nil
		}
		tbl.Names[i] = name
	}
	ncol := len(tbl.Names)
	for i := 0; i < len(vals); i += ncol {
		tbl.Rows = append(tbl.Rows, vals[i:i+ncol:i+ncol])
	}
	d[cat] = tbl
	return stateTop
}

// stateSkipLoopTable reads values from a table, but does not save them.
// Most of the tables we encounter are not to be saved.
func stateSkipLoopTable(rd *Reader, _ Data) stateFn {
	loopValues(rd, false)
	if !rd.Ok {
		return nil
	}
	return stateTop
}

// stateDItem gets a name and its value. The value may be on the next
// line or be a text field.
func stateDItem(rd *Reader, d Data) stateFn {
	name, _ := rd.next()
	val, ok := rd.next()
	if !ok || special(val) {
		rd.fill("no value for "+name.s, true)
		return nil
	}
	cat, item := splitName(name.s)
	if !rd.keep(cat) {
		return stateTop
	}
	tbl, ok := d[cat]
	if !ok {
		tbl = &Table{Rows: [][]string{nil}}
		d[cat] = tbl
	}
	if len(tbl.Rows) != 1 {
		rd.fill(cat+" seen as a loop and as a single item", true)
		return nil
	}
	tbl.Names = append(tbl.Names, item)
	tbl.Rows[0] = append(tbl.Rows[0], val.s)
	tbl.index = nil
	return stateTop
}

// Read parses the whole input.
func (rd *Reader) Read() (Data, error) {
	if rd == nil {
		return nil, readError{desc: "nil mmcif reader"}
	}
	d := make(Data)
	for state := stateTop; state != nil && rd.Ok; {
		state = state(rd, d)
	}
	if !rd.Ok {
		return nil, rd.l_err
	}
	return d, nil
}
