// Package cmpclust says how two clusterings of the same sites line up.
// Usually one comes from each alignment strategy, with the same number
// of clusters and the same linkage method.
//
// For every cluster of the first, it lists the clusters of the second
// that its members fell into, and the other way round. Nothing is
// merged or decided. A cluster that lands in one place on the other
// side is clean, one that lands in several is split.
package cmpclust

import (
	"fmt"
	"maps"
	"slices"
)

// Spread takes a label on one side to the sorted labels on the other
// side that its members have.
type Spread map[int][]int

// Result of a comparison.
type Result struct {
	AtoB Spread
	BtoA Spread
}

// MismatchError means an identity is in one clustering and not in the
// other, or twice in one of them. The comparison has no meaning then.
type MismatchError struct {
	Identity int
	Side     string // "a" or "b", where it was found
	Twice    bool
}

func (e *MismatchError) Error() string {
	if e.Twice {
		return fmt.Sprintf("identity %d is in two clusters of %s", e.Identity, e.Side)
	}
	other := "b"
	if e.Side == "b" {
		other = "a"
	}
	return fmt.Sprintf("identity %d is in clustering %s but not in %s", e.Identity, e.Side, other)
}

// inverse maps identity to label.
func inverse(members map[int][]int, side string) (map[int]int, error) {
	ret := make(map[int]int)
	for _, l := range slices.Sorted(maps.Keys(members)) {
		for _, id := range members[l] {
			if _, ok := ret[id]; ok {
				return nil, &MismatchError{Identity: id, Side: side, Twice: true}
			}
			ret[id] = l
		}
	}
	return ret, nil
}

func spread(from map[int][]int, to map[int]int, side string) (Spread, error) {
	ret := make(Spread, len(from))
	for _, l := range slices.Sorted(maps.Keys(from)) {
		seen := make(map[int]bool)
		for _, id := range from[l] {
			o, ok := to[id]
			if !ok {
				return nil, &MismatchError{Identity: id, Side: side}
			}
			seen[o] = true
		}
		ret[l] = slices.Sorted(maps.Keys(seen))
	}
	return ret, nil
}

// Compare takes two clusterings as label to identities, the way they
// are stored, and maps each onto the other.
func Compare(a, b map[int][]int) (*Result, error) {
	invA, err := inverse(a, "a")
	if err != nil {
		return nil, err
	}
	invB, err := inverse(b, "b")
	if err != nil {
		return nil, err
	}
	atob, err := spread(a, invB, "a")
	if err != nil {
		return nil, err
	}
	btoa, err := spread(b, invA, "b")
	if err != nil {
		return nil, err
	}
	return &Result{AtoB: atob, BtoA: btoa}, nil
}

// Split gives the labels that map to more than one label on the other
// side, in order.
func (s Spread) Split() []int {
	var ret []int
	for _, l := range slices.Sorted(maps.Keys(s)) {
		if len(s[l]) > 1 {
			ret = append(ret, l)
		}
	}
	return ret
}

// Agree is true when each cluster on both sides maps to exactly one
// cluster on the other.
func (r *Result) Agree() bool { return len(r.AtoB.Split()) == 0 && len(r.BtoA.Split()) == 0 }
