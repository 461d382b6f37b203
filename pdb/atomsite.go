package pdb

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/andrew-torda/sugarclust/pdb/cmmn"
	"github.com/andrew-torda/sugarclust/pdb/mmcif"
)

var errNoAtoms = errors.New("no atom table found")

// pick returns the first of the column names that the table has. Files
// usually have auth_ and label_ versions of names and numbers. We
// prefer the author's, since that is what the pdb format has.
func pick(t *mmcif.Table, names ...string) int {
	for _, n := range names {
		if i := t.Col(n); i >= 0 {
			return i
		}
	}
	return -1
}

// acn has the column numbers in the _atom_site table.
type acn struct {
	group, id, elem, name, alt, resName, chain, resNum, iCode, x, y, z, occ, bFac, model int
}

func findCols(t *mmcif.Table) (acn, error) {
	c := acn{
		group:   pick(t, "group_PDB"),
		id:      pick(t, "id"),
		elem:    pick(t, "type_symbol"),
		name:    pick(t, "auth_atom_id", "label_atom_id"),
		alt:     pick(t, "label_alt_id"),
		resName: pick(t, "auth_comp_id", "label_comp_id"),
		chain:   pick(t, "auth_asym_id", "label_asym_id"),
		resNum:  pick(t, "auth_seq_id", "label_seq_id"),
		iCode:   pick(t, "pdbx_PDB_ins_code"),
		x:       pick(t, "Cartn_x"),
		y:       pick(t, "Cartn_y"),
		z:       pick(t, "Cartn_z"),
		occ:     pick(t, "occupancy"),
		bFac:    pick(t, "B_iso_or_equiv"),
		model:   pick(t, "pdbx_PDB_model_num"),
	}
	var missing []string
	for _, m := range []struct {
		i    int
		name string
	}{{c.name, "atom_id"}, {c.resName, "comp_id"}, {c.chain, "asym_id"},
		{c.resNum, "seq_id"}, {c.x, "Cartn_x"}, {c.y, "Cartn_y"}, {c.z, "Cartn_z"}} {
		if m.i < 0 {
			missing = append(missing, m.name)
		}
	}
	if len(missing) > 0 {
		return c, fmt.Errorf("_atom_site missing columns %s", strings.Join(missing, ", "))
	}
	return c, nil
}

// val returns row[i], or "" for a missing column or a cif null.
func val(row []string, i int) string {
	if i < 0 || mmcif.IsNull(row[i]) {
		return ""
	}
	return row[i]
}

// atomSite turns the rows of an _atom_site table into atoms. Only
// the first model is kept.
func atomSite(t *mmcif.Table) (*cmmn.Structure, error) {
	if t == nil || len(t.Rows) == 0 {
		return nil, errNoAtoms
	}
	c, err := findCols(t)
	if err != nil {
		return nil, err
	}
	st := &cmmn.Structure{Atoms: make([]cmmn.Atom, 0, len(t.Rows))}
	firstModel := val(t.Rows[0], c.model)
	for n, row := range t.Rows {
		if val(row, c.model) != firstModel {
			break
		}
		a := cmmn.Atom{
			Name:    val(row, c.name),
			ResName: val(row, c.resName),
			Chain:   val(row, c.chain),
			Element: strings.ToUpper(val(row, c.elem)),
			Het:     val(row, c.group) == "HETATM",
			AltLoc:  ' ',
			ICode:   ' ',
			Occ:     1,
		}
		if s := val(row, c.alt); s != "" {
			a.AltLoc = s[0]
		}
		if s := val(row, c.iCode); s != "" {
			a.ICode = s[0]
		}
		if s := val(row, c.id); s != "" {
			if a.Serial, err = strconv.Atoi(s); err != nil {
				return nil, fmt.Errorf("atom row %d: bad serial %q", n+1, s)
			}
		}
		if a.ResNum, err = strconv.Atoi(val(row, c.resNum)); err != nil {
			return nil, fmt.Errorf("atom row %d: bad residue number %q", n+1, row[c.resNum])
		}
		var x [3]float64
		for i, col := range []int{c.x, c.y, c.z} {
			if x[i], err = strconv.ParseFloat(row[col], 64); err != nil {
				return nil, fmt.Errorf("atom row %d: bad coordinate %q", n+1, row[col])
			}
		}
		a.Pos = cmmn.Xyz{X: x[0], Y: x[1], Z: x[2]}
		if s := val(row, c.occ); s != "" {
			if a.Occ, err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("atom row %d: bad occupancy %q", n+1, s)
			}
		}
		if s := val(row, c.bFac); s != "" {
			if a.BFac, err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("atom row %d: bad B-factor %q", n+1, s)
			}
		}
		st.Atoms = append(st.Atoms, a)
	}
	return st, nil
}
