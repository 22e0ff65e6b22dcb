// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.7.12
//

// Lenstra-Lenstra-Lovasz (LLL) lattice basis reduction with Householder
// orthogonalization, for real double precision bases.
//
// A reduced basis D is an LLL(delta) reduction of an m x n matrix B if
//
//	B U = D = Q R,
//
// where U is unimodular and Q R is a QR factorization of D whose R has
// a non-negative diagonal, is eta size-reduced, and satisfies the
// Lovasz condition delta R(i,i)^2 <= R(i+1,i+1)^2 + |R(i,i+1)|^2.
// Linearly dependent columns are handled in the manner of the MLLL
// variant suggested by Pohst (see Cohen, "A course in computational
// algebraic number theory").

package golll

import (
	"fmt"
	"math"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// Recomputing the deep-insertion partial norms exactly on every
// downdate avoids drift on ill-conditioned bases.
const deepAlwaysRecompute = true

// LLL reduces the columns of b in place and reports the reduction
// summary.
func LLL(b *mat.Dense, ctrl *Ctrl) (Info, error) {
	return LLLFull(b, nil, nil, nil, ctrl)
}

// LLLWithR additionally fills r with the upper-trapezoidal factor of
// the reduced basis.
func LLLWithR(b, r *mat.Dense, ctrl *Ctrl) (Info, error) {
	if r == nil {
		return Info{}, fmt.Errorf("%w: nil R factor", ErrInvalidArgument)
	}
	return LLLFull(b, nil, nil, r, ctrl)
}

// LLLFull reduces b in place while maintaining the unimodular
// transform u (b_in * u = b_out), its exact inverse uInv, and the R
// factor. Any of u, uInv, r may be nil to skip it; non-nil arguments
// may be empty matrices, which are sized on entry.
func LLLFull(b, u, uInv, r *mat.Dense, ctrl *Ctrl) (Info, error) {
	if ctrl == nil {
		ctrl = DefaultCtrl()
	}
	if err := ctrl.validate(); err != nil {
		return Info{}, err
	}
	if b == nil || b.IsEmpty() {
		return Info{}, fmt.Errorf("%w: empty basis", ErrInvalidArgument)
	}
	m, n := b.Dims()

	qr := r
	if qr == nil {
		qr = &mat.Dense{}
	}
	if err := shapeWorking(qr, m, n); err != nil {
		return Info{}, err
	}
	var ug, ig *blas64.General
	if u != nil {
		if err := shapeIdentity(u, n); err != nil {
			return Info{}, err
		}
		g := u.RawMatrix()
		ug = &g
	}
	if uInv != nil {
		if err := shapeIdentity(uInv, n); err != nil {
			return Info{}, err
		}
		g := uInv.RawMatrix()
		ig = &g
	}

	if ctrl.Presort {
		presort(b, u, uInv, ctrl.SmallestFirst)
	}

	bg := b.RawMatrix()
	qg := qr.RawMatrix()
	minDim := min(m, n)
	t := make([]float64, minDim)
	d := make([]float64, minDim)
	x := make([]float64, n)

	var info Info
	var err error
	if ctrl.Deep {
		err = unblockedDeep(bg, ug, ig, qg, t, d, x, ctrl, &info)
	} else {
		err = unblocked(bg, ug, ig, qg, t, d, x, ctrl, &info)
	}
	if err != nil {
		return info, err
	}

	makeTrapezoidal(qg)
	info.Delta, info.Eta = achieved(qg, ctrl)
	info.LogVol = logVolume(qg)
	info.Rank = n - info.Nullity
	return info, nil
}

// shapeWorking sizes an output matrix to m x n, zeroed.
func shapeWorking(a *mat.Dense, m, n int) error {
	if a.IsEmpty() {
		a.ReuseAs(m, n)
		return nil
	}
	am, an := a.Dims()
	if am != m || an != n {
		return fmt.Errorf("%w: output is %dx%d, want %dx%d", ErrInvalidArgument, am, an, m, n)
	}
	a.Zero()
	return nil
}

// shapeIdentity sizes a transform matrix to n x n and sets it to the
// identity.
func shapeIdentity(a *mat.Dense, n int) error {
	if err := shapeWorking(a, n, n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		a.Set(i, i, 1)
	}
	return nil
}

// presort stably reorders the columns of b by Euclidean norm and folds
// the permutation into the (identity) transforms, so the B*U invariant
// holds from the first iteration.
func presort(b, u, uInv *mat.Dense, smallestFirst bool) {
	m, n := b.Dims()
	bg := b.RawMatrix()
	norms := make([]float64, n)
	for j := 0; j < n; j++ {
		norms[j] = blas64.Nrm2(colVec(bg, j, 0, m))
	}
	idx := make([]int, n)
	for j := range idx {
		idx[j] = j
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		switch {
		case norms[a] < norms[b]:
			if smallestFirst {
				return -1
			}
			return 1
		case norms[a] > norms[b]:
			if smallestFirst {
				return 1
			}
			return -1
		}
		return 0
	})

	perm := mat.NewDense(m, n, nil)
	pg := perm.RawMatrix()
	for j := 0; j < n; j++ {
		blas64.Copy(colVec(bg, idx[j], 0, m), colVec(pg, j, 0, m))
	}
	b.Copy(perm)

	if u != nil {
		u.Zero()
		for j := 0; j < n; j++ {
			u.Set(idx[j], j, 1)
		}
	}
	if uInv != nil {
		uInv.Zero()
		for j := 0; j < n; j++ {
			uInv.Set(j, idx[j], 1)
		}
	}
}

// headReset reinitializes the factorization at column 0 after the head
// column changed, and re-tests the zero condition.
func headReset(b, qr blas64.General, t, d []float64, ctrl *Ctrl, tm *timers) (zero bool) {
	expandQR(0, b, qr, t, d, ctrl, tm)
	householderStep(0, qr, t, d)
	if blas64.Nrm2(colVec(b, 0, 0, b.Rows)) <= ctrl.ZeroTol {
		zeroCol(b, 0)
		zeroCol(qr, 0)
		return true
	}
	return false
}

// unblocked is the classic adjacent-swap driver.
func unblocked(b blas64.General, u, uInv *blas64.General, qr blas64.General, t, d, x []float64, ctrl *Ctrl, info *Info) error {
	m, n := b.Rows, b.Cols
	minDim := len(t)
	tm := &timers{}

	nullity := 0
	if headReset(b, qr, t, d, ctrl, tm) {
		nullity = 1
	}

	k := 1
	numSwaps := 0
	for k < n {
		zeroVector, err := sizeReduceStep(k, b, u, uInv, qr, t, d, x, ctrl, tm)
		if err != nil {
			info.Nullity = nullity
			info.NumSwaps = numSwaps
			return err
		}
		if zeroVector {
			nullity = k + 1
		} else if nullity > k {
			nullity = k
		}

		rhoPrev := rdiag(qr, k-1)
		var offDiag float64
		if k-1 < minDim {
			offDiag = qr.Data[(k-1)*qr.Stride+k]
		}
		leftTerm := math.Sqrt(ctrl.Delta) * rhoPrev
		rightTerm := math.Hypot(rdiag(qr, k), offDiag)
		if leftTerm <= rightTerm {
			k++
			continue
		}

		numSwaps++
		if ctrl.Progress {
			PrintA("Dropping from k=%d to %d since sqrt(delta)*R(k-1,k-1)=%g > %g\n",
				k, max(k-1, 1), leftTerm, rightTerm)
		}
		blas64.Swap(colVec(b, k-1, 0, m), colVec(b, k, 0, m))
		if u != nil {
			blas64.Swap(colVec(*u, k-1, 0, u.Rows), colVec(*u, k, 0, u.Rows))
		}
		if uInv != nil {
			blas64.Swap(rowVec(*uInv, k-1), rowVec(*uInv, k))
		}
		if k == 1 {
			// The head column was replaced; keep k=1.
			if headReset(b, qr, t, d, ctrl, tm) {
				nullity = 1
			} else {
				nullity = 0
			}
		} else {
			k--
		}
	}

	if ctrl.Time {
		tm.report()
	}
	info.Nullity = nullity
	info.NumSwaps = numSwaps
	return nil
}

// unblockedDeep is the Schnorr-Euchner deep-insertion driver. The
// partial norm of the candidate column is recomputed exactly at every
// step while deepAlwaysRecompute is set; otherwise it is downdated as in
// LAWN 176 and recomputed whenever the downdate loses accuracy.
//
// The running norm starts from ||R[0..k+1, k]||, the full candidate
// column, not R(k,k) alone; initializing from the projected length
// drops insertions the stronger condition requires.
func unblockedDeep(b blas64.General, u, uInv *blas64.General, qr blas64.General, t, d, x []float64, ctrl *Ctrl, info *Info) error {
	m, n := b.Rows, b.Cols
	tm := &timers{}
	colBuf := make([]float64, m)
	var rowBuf []float64
	if uInv != nil {
		rowBuf = make([]float64, n)
	}
	if u != nil && u.Rows > m {
		colBuf = make([]float64, u.Rows)
	}

	nullity := 0
	if headReset(b, qr, t, d, ctrl, tm) {
		nullity = 1
	}

	k := 1
	numSwaps := 0
	for k < n {
		zeroVector, err := sizeReduceStep(k, b, u, uInv, qr, t, d, x, ctrl, tm)
		if err != nil {
			info.Nullity = nullity
			info.NumSwaps = numSwaps
			return err
		}
		if zeroVector {
			nullity = k + 1
		} else if nullity > k {
			nullity = k
		}

		swapped := false
		origNorm := blas64.Nrm2(colVec(qr, k, 0, min(k+1, m)))
		partialNorm := origNorm
		for i := 0; i < k; i++ {
			leftTerm := math.Sqrt(ctrl.Delta) * rdiag(qr, i)
			if leftTerm > partialNorm {
				numSwaps++
				if ctrl.Progress {
					PrintA("Deep inserting k=%d into position i=%d since sqrt(delta)*R(i,i)=%g > %g\n",
						k, i, leftTerm, partialNorm)
				}
				deepColSwap(b, i, k, colBuf)
				if u != nil {
					deepColSwap(*u, i, k, colBuf)
				}
				if uInv != nil {
					deepRowSwap(*uInv, i, k, rowBuf)
				}
				if i == 0 {
					if headReset(b, qr, t, d, ctrl, tm) {
						nullity = 1
					} else {
						nullity = 0
					}
					k = 1
				} else {
					k = i
				}
				swapped = true
				break
			}
			var rik float64
			if i < m {
				rik = qr.Data[i*qr.Stride+k]
			}
			gamma := math.Abs(rik) / partialNorm
			gamma = math.Max(0, (1-gamma)*(1+gamma))
			ratio := partialNorm / origNorm
			phi := gamma * ratio * ratio
			if phi <= SqEPS || deepAlwaysRecompute {
				lo, hi := i+1, min(k+1, m)
				if hi > lo {
					partialNorm = blas64.Nrm2(colVec(qr, k, lo, hi-lo))
				} else {
					partialNorm = 0
				}
				origNorm = partialNorm
			} else {
				partialNorm *= math.Sqrt(gamma)
			}
		}
		if !swapped {
			k++
		}
	}

	if ctrl.Time {
		tm.report()
	}
	info.Nullity = nullity
	info.NumSwaps = numSwaps
	return nil
}
