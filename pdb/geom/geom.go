// Package geom calculates distances, centres and superpositions of
// sets of atoms.
package geom

import (
	"fmt"
	"math"

	"github.com/andrew-torda/sugarclust/pdb/cmmn"
)

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrUnknownElement = Error("element has no mass")
	ErrEmpty          = Error("no atoms")
	ErrLength         = Error("coordinate sets differ in length")
)

// Dist2 is the distance squared
func Dist2(a, b cmmn.Xyz) float64 { return a.Sub(b).Len2() }

// Dist returns the distance between two points.
func Dist(a, b cmmn.Xyz) float64 { return math.Sqrt(Dist2(a, b)) }

// Centroid is the plain average of positions.
func Centroid(x []cmmn.Xyz) (cmmn.Xyz, error) {
	if len(x) == 0 {
		return cmmn.BrokenXyz, ErrEmpty
	}
	var c cmmn.Xyz
	for _, p := range x {
		c = c.Add(p)
	}
	return c.Scale(1 / float64(len(x))), nil
}

// masses in daltons. Deuterium is deliberately missing. Files with a
// D element are repaired by the refiner and read again.
var masses = map[string]float64{
	"H": 1.008, "B": 10.81, "C": 12.011, "N": 14.007, "O": 15.999,
	"F": 18.998, "NA": 22.990, "MG": 24.305, "AL": 26.982, "SI": 28.085,
	"P": 30.974, "S": 32.06, "CL": 35.45, "K": 39.098, "CA": 40.078,
	"MN": 54.938, "FE": 55.845, "CO": 58.933, "NI": 58.693, "CU": 63.546,
	"ZN": 65.38, "SE": 78.971, "BR": 79.904, "SR": 87.62, "CD": 112.414,
	"I": 126.904, "CS": 132.905, "BA": 137.327, "PT": 195.084, "HG": 200.592,
}

// Mass returns the mass of an element, given in upper case.
func Mass(element string) (float64, error) {
	if m, ok := masses[element]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownElement, element)
}

// CenterOfMass of a set of atoms. It fails on the first atom whose
// element we do not know.
func CenterOfMass(atoms []cmmn.Atom) (cmmn.Xyz, error) {
	if len(atoms) == 0 {
		return cmmn.BrokenXyz, ErrEmpty
	}
	var c cmmn.Xyz
	var mtot float64
	for i := range atoms {
		m, err := Mass(atoms[i].Element)
		if err != nil {
			return cmmn.BrokenXyz, fmt.Errorf("atom %s %s: %w", atoms[i].ResID(), atoms[i].Name, err)
		}
		c = c.Add(atoms[i].Pos.Scale(m))
		mtot += m
	}
	return c.Scale(1 / mtot), nil
}

// RMSD between two sets of coordinates where they are. Nothing is fitted.
func RMSD(a, b []cmmn.Xyz) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrLength
	}
	if len(a) == 0 {
		return 0, ErrEmpty
	}
	var sum float64
	for i := range a {
		sum += Dist2(a[i], b[i])
	}
	return math.Sqrt(sum / float64(len(a))), nil
}

// MinDist is the smallest distance from p to any point in x.
func MinDist(p cmmn.Xyz, x []cmmn.Xyz) float64 {
	d := math.Inf(1)
	for _, q := range x {
		if t := Dist2(p, q); t < d {
			d = t
		}
	}
	return math.Sqrt(d)
}
