// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.7.18
//

package golll

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// LatticeImageAndKernel reduces b in place and partitions the result:
// img collects the nonzero columns of the reduced basis (those with a
// two-norm above zeroTol) and ker collects the columns of the
// unimodular transform that map b onto its zero columns, i.e. a basis
// for the kernel of b. This follows Algorithm 2.7.1 of Cohen.
func LatticeImageAndKernel(b *mat.Dense, ctrl *Ctrl) (img, ker *mat.Dense, err error) {
	if ctrl == nil {
		ctrl = DefaultCtrl()
	}
	var u mat.Dense
	if _, err := LLLFull(b, &u, nil, nil, ctrl); err != nil {
		return nil, nil, err
	}

	m, n := b.Dims()
	bg := b.RawMatrix()
	var imgCols, kerCols []int
	for j := 0; j < n; j++ {
		if blas64.Nrm2(colVec(bg, j, 0, m)) > ctrl.ZeroTol {
			imgCols = append(imgCols, j)
		} else {
			kerCols = append(kerCols, j)
		}
	}

	img = gatherCols(b, imgCols)
	ker = gatherCols(&u, kerCols)
	return img, ker, nil
}

// LatticeKernel reduces b in place and returns a basis for its kernel.
func LatticeKernel(b *mat.Dense, ctrl *Ctrl) (*mat.Dense, error) {
	_, ker, err := LatticeImageAndKernel(b, ctrl)
	return ker, err
}

func gatherCols(a *mat.Dense, cols []int) *mat.Dense {
	m, _ := a.Dims()
	if len(cols) == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(m, len(cols), nil)
	ag := a.RawMatrix()
	og := out.RawMatrix()
	for j, src := range cols {
		blas64.Copy(colVec(ag, src, 0, m), colVec(og, j, 0, m))
	}
	return out
}

// ZDependenceSearch looks for integer relations of the entries of z via
// the quadratic form || a ||^2 + N | z^T a |^2, generated by the basis
//
//	B = [I; sqrt(N) z^T].
//
// The reduced basis and the unimodular transform are returned together
// with the number of (nearly) exact relations found: columns whose
// residual |B(n,j)| / NSqrt = |z^T a| is within sqrt(eps).
func ZDependenceSearch(z mat.Vector, nSqrt float64, ctrl *Ctrl) (numExact int, b, u *mat.Dense, err error) {
	if ctrl == nil {
		ctrl = DefaultCtrl()
	}
	n := z.Len()
	if n < 1 {
		return 0, nil, nil, fmt.Errorf("%w: empty z", ErrInvalidArgument)
	}
	if nSqrt <= 0 {
		return 0, nil, nil, fmt.Errorf("%w: NSqrt=%g not positive", ErrInvalidArgument, nSqrt)
	}

	b = mat.NewDense(n+1, n, nil)
	for j := 0; j < n; j++ {
		b.Set(j, j, 1)
		b.Set(n, j, nSqrt*z.AtVec(j))
	}
	u = &mat.Dense{}

	if _, err := LLLFull(b, u, nil, nil, ctrl); err != nil {
		return 0, b, u, err
	}

	for j := 0; j < n; j++ {
		if math.Abs(b.At(n, j))/nSqrt <= SqEPS {
			numExact++
		}
	}
	return numExact, b, u, nil
}

// AlgebraicRelationSearch looks for the integer coefficients of a
// polynomial of degree n that (nearly) annihilates alpha, by running a
// Z-dependence search on the power column [1, alpha, ..., alpha^n].
func AlgebraicRelationSearch(alpha float64, n int, nSqrt float64, ctrl *Ctrl) (numExact int, b, u *mat.Dense, err error) {
	if n < 1 {
		return 0, nil, nil, fmt.Errorf("%w: degree %d below 1", ErrInvalidArgument, n)
	}
	z := mat.NewVecDense(n+1, nil)
	pow := 1.0
	for i := 0; i <= n; i++ {
		z.SetVec(i, pow)
		pow *= alpha
	}
	return ZDependenceSearch(z, nSqrt, ctrl)
}

// GaussianHeuristic estimates the length of the shortest vector of a
// rank-n lattice with the given log-volume logVol = 2*log|det(L)|, the
// convention of Info.LogVol:
//
//	GH(L) = (1/sqrt(pi)) Gamma(n/2+1)^{1/n} |det(L)|^{1/n}.
func GaussianHeuristic(n int, logVol float64) float64 {
	lg, _ := math.Lgamma(float64(n)/2 + 1)
	return math.Exp((lg+logVol/2)/float64(n)) / math.Sqrt(math.Pi)
}
