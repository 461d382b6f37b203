package geom

import (
	"math"

	matrix "github.com/skelterjohn/go.matrix"

	"github.com/andrew-torda/sugarclust/pdb/cmmn"
)

// Transform is a rotation followed by a translation.
// Apply gives R p + T.
type Transform struct {
	R [3][3]float64
	T cmmn.Xyz
}

// Identity does nothing.
var Identity = Transform{R: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}

// Apply moves one point.
func (t *Transform) Apply(p cmmn.Xyz) cmmn.Xyz {
	return cmmn.Xyz{
		X: t.R[0][0]*p.X + t.R[0][1]*p.Y + t.R[0][2]*p.Z + t.T.X,
		Y: t.R[1][0]*p.X + t.R[1][1]*p.Y + t.R[1][2]*p.Z + t.T.Y,
		Z: t.R[2][0]*p.X + t.R[2][1]*p.Y + t.R[2][2]*p.Z + t.T.Z,
	}
}

// ApplyAll moves every point in place.
func (t *Transform) ApplyAll(x []cmmn.Xyz) {
	for i := range x {
		x[i] = t.Apply(x[i])
	}
}

// must panics if the result of a dense matrix operation returns an error.
// The only errors are from mismatched dimensions and ours are always 3x3
// or 3xN by Nx3.
func must(A *matrix.DenseMatrix, err error) *matrix.DenseMatrix {
	if err != nil {
		panic(err)
	}
	return A
}

// Kabsch finds the rotation and translation which best superimpose
// moving onto target in the least squares sense. It also returns the
// RMSD after fitting.
//
// Build 3xN matrices X and Y of the centred coordinates, get the
// covariance C = X Y^T and its SVD C = U S V^T. The rotation is
// V diag(1, 1, d) U^T where d = sign(det C) removes reflections.
func Kabsch(moving, target []cmmn.Xyz) (Transform, float64, error) {
	if len(moving) != len(target) {
		return Identity, 0, ErrLength
	}
	n := len(moving)
	if n == 0 {
		return Identity, 0, ErrEmpty
	}
	cm, _ := Centroid(moving)
	ct, _ := Centroid(target)
	els1 := make([]float64, 3*n)
	els2 := make([]float64, 3*n)
	for i := 0; i < n; i++ {
		a := moving[i].Sub(cm)
		b := target[i].Sub(ct)
		els1[i], els1[i+n], els1[i+2*n] = a.X, a.Y, a.Z
		els2[i], els2[i+n], els2[i+2*n] = b.X, b.Y, b.Z
	}
	X := matrix.MakeDenseMatrix(els1, 3, n)
	Y := matrix.MakeDenseMatrix(els2, 3, n)
	C := must(X.TimesDense(Y.Transpose()))

	U, _, V, err := C.SVD()
	if err != nil {
		return Identity, 0, err
	}
	UT := U.Transpose()
	var R *matrix.DenseMatrix
	if C.Det() < 0 {
		adjust := matrix.MakeDenseMatrix([]float64{
			1, 0, 0,
			0, 1, 0,
			0, 0, -1,
		}, 3, 3)
		R = must(must(V.TimesDense(adjust)).TimesDense(UT))
	} else {
		R = must(V.TimesDense(UT))
	}

	var t Transform
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t.R[i][j] = R.Get(i, j)
		}
	}
	rc := t.Apply(cm) // T is still zero, so this is only the rotation
	t.T = ct.Sub(rc)

	var sum float64
	for i := range moving {
		sum += Dist2(t.Apply(moving[i]), target[i])
	}
	return t, math.Sqrt(sum / float64(n)), nil
}
