package pdb

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/andrew-torda/sugarclust/pdb/cmmn"
	"github.com/andrew-torda/sugarclust/pdb/mmcif"
)

// ReadCCD reads a chemical component file, like GLC.cif from the
// component dictionary, and returns the free ligand as a structure with
// one residue. We take the ideal coordinates. If these are missing, we
// try the model coordinates. ReadFile does the same when an mmcif file
// has no _atom_site table.
func ReadCCD(r io.Reader) (*cmmn.Structure, error) {
	d, err := mmcif.Read(r, "_chem_comp", "_chem_comp_atom")
	if err != nil {
		return nil, err
	}
	return ccdFromData(d)
}

func ccdFromData(d mmcif.Data) (*cmmn.Structure, error) {
	var err error
	t := d["_chem_comp_atom"]
	if t == nil || len(t.Rows) == 0 {
		return nil, fmt.Errorf("no _chem_comp_atom table")
	}
	code := ""
	if cc := d["_chem_comp"]; cc != nil {
		code = cc.Get(0, "id")
	}
	s := &cmmn.Structure{Name: code}
	for i := range t.Rows {
		a := cmmn.Atom{
			Serial:  i + 1,
			Name:    t.Get(i, "atom_id"),
			ResName: t.Get(i, "comp_id"),
			Chain:   "A",
			ResNum:  1,
			Element: strings.ToUpper(t.Get(i, "type_symbol")),
			Het:     true,
			AltLoc:  ' ',
			ICode:   ' ',
			Occ:     1,
		}
		if s.Name == "" {
			s.Name = a.ResName
		}
		if a.Pos, err = ccdXyz(t, i, "pdbx_model_Cartn_%s_ideal"); err != nil {
			if a.Pos, err = ccdXyz(t, i, "model_Cartn_%s"); err != nil {
				return nil, fmt.Errorf("atom %s: %w", a.Name, err)
			}
		}
		s.Atoms = append(s.Atoms, a)
	}
	return s, nil
}

func ccdXyz(t *mmcif.Table, row int, format string) (cmmn.Xyz, error) {
	var x [3]float64
	for i, c := range []string{"x", "y", "z"} {
		v := t.Get(row, fmt.Sprintf(format, c))
		if v == "" || mmcif.IsNull(v) {
			return cmmn.BrokenXyz, fmt.Errorf("no %s coordinate", c)
		}
		var err error
		if x[i], err = strconv.ParseFloat(v, 64); err != nil {
			return cmmn.BrokenXyz, err
		}
	}
	return cmmn.Xyz{X: x[0], Y: x[1], Z: x[2]}, nil
}
