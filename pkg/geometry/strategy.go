package geometry

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/andrew-torda/sugarclust/gotoh"
	"github.com/andrew-torda/sugarclust/pdb/cmmn"
	"github.com/andrew-torda/sugarclust/pdb/geom"
	"github.com/andrew-torda/sugarclust/submat"
)

// resAtoms is a residue within a selection. With alternate locations,
// the first atom of each name wins.
type resAtoms struct {
	id     cmmn.ResID
	name   string
	ca     int // -1 if there is none
	byName map[string]int
}

func residues(s *cmmn.Structure, idx []int) []resAtoms {
	var ret []resAtoms
	seen := make(map[cmmn.ResID]int)
	for _, i := range idx {
		a := &s.Atoms[i]
		id := a.ResID()
		n, ok := seen[id]
		if !ok {
			n = len(ret)
			seen[id] = n
			ret = append(ret, resAtoms{id: id, name: a.ResName, ca: -1, byName: make(map[string]int)})
		}
		r := &ret[n]
		if _, dup := r.byName[a.Name]; dup {
			continue
		}
		r.byName[a.Name] = i
		if a.Name == "CA" {
			r.ca = i
		}
	}
	return ret
}

func oneLetter(res []resAtoms) []byte {
	b := make([]byte, len(res))
	for i := range res {
		b[i] = cmmn.OneLetter(res[i].name)
	}
	return b
}

var (
	superScheme = gotoh.Al_score{Pnlty: gotoh.Pnlty{Open: 2, Wdn: 0.5}, Al_type: gotoh.Global}
	alignScheme = gotoh.Al_score{Pnlty: gotoh.Pnlty{Open: 9.5, Wdn: 0.5}, Al_type: gotoh.Global}
)

// caScore is 2 for CA atoms on top of each other, falling to -2 at 8 Å.
func caScore(d float64) float32 {
	return float32(max(-2, min(2, 2-d/2)))
}

// pairResidues aligns the residue lists. Super scores pairs by the
// distance between their CA atoms as they are now. Align scores them
// by residue type.
func pairResidues(ms *cmmn.Structure, mRes []resAtoms, fs *cmmn.Structure, fRes []resAtoms,
	strategy Strategy) ([]gotoh.Pair, error) {
	switch strategy {
	case Super:
		smat := gotoh.ScoreFunc(len(mRes), len(fRes), func(i, j int) float32 {
			a, b := mRes[i].ca, fRes[j].ca
			if a < 0 || b < 0 {
				return -2
			}
			return caScore(geom.Dist(ms.Atoms[a].Pos, fs.Atoms[b].Pos))
		})
		pairs, _ := gotoh.Align(smat, &superScheme)
		return pairs, nil
	case Align:
		smat := submat.Blosum62().ScoreSeqs(oneLetter(mRes), oneLetter(fRes))
		pairs, _ := gotoh.Align(smat, &alignScheme)
		return pairs, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrStrategy, strategy)
}

// alignedStrings is for debugging output.
func alignedStrings(pairs []gotoh.Pair, mRes, fRes []resAtoms) (string, string) {
	return gotoh.Strings(pairs, oneLetter(mRes), oneLetter(fRes))
}

func sortPairs(p []AtomPair) {
	slices.SortFunc(p, func(a, b AtomPair) int {
		if c := cmp.Compare(a.Moving, b.Moving); c != 0 {
			return c
		}
		return cmp.Compare(a.Fixed, b.Fixed)
	})
}
