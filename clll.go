// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.7.15
//

// Complex double precision instantiation of the LLL reduction. Apart
// from rounding chi to Gaussian integers and testing eta against the
// real and imaginary parts independently, the algorithm is the same as
// the real case.

package golll

import (
	"fmt"
	"math"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

// CLLL reduces the columns of b in place and reports the reduction
// summary.
func CLLL(b *mat.CDense, ctrl *Ctrl) (Info, error) {
	return CLLLFull(b, nil, nil, nil, ctrl)
}

// CLLLWithR additionally fills r with the upper-trapezoidal factor.
func CLLLWithR(b, r *mat.CDense, ctrl *Ctrl) (Info, error) {
	if r == nil {
		return Info{}, fmt.Errorf("%w: nil R factor", ErrInvalidArgument)
	}
	return CLLLFull(b, nil, nil, r, ctrl)
}

// CLLLFull reduces b in place while maintaining the Gaussian-integer
// unimodular transform u, its inverse uInv, and the R factor. Any of
// u, uInv, r may be nil.
func CLLLFull(b, u, uInv, r *mat.CDense, ctrl *Ctrl) (Info, error) {
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
		qr = &mat.CDense{}
	}
	if err := cShapeWorking(qr, m, n); err != nil {
		return Info{}, err
	}
	var ug, ig *cblas128.General
	if u != nil {
		if err := cShapeIdentity(u, n); err != nil {
			return Info{}, err
		}
		g := u.RawCMatrix()
		ug = &g
	}
	if uInv != nil {
		if err := cShapeIdentity(uInv, n); err != nil {
			return Info{}, err
		}
		g := uInv.RawCMatrix()
		ig = &g
	}

	if ctrl.Presort {
		cPresort(b, u, uInv, ctrl.SmallestFirst)
	}

	bg := b.RawCMatrix()
	qg := qr.RawCMatrix()
	minDim := min(m, n)
	t := make([]complex128, minDim)
	d := make([]float64, minDim)
	x := make([]complex128, n)

	var info Info
	var err error
	if ctrl.Deep {
		err = cUnblockedDeep(bg, ug, ig, qg, t, d, x, ctrl, &info)
	} else {
		err = cUnblocked(bg, ug, ig, qg, t, d, x, ctrl, &info)
	}
	if err != nil {
		return info, err
	}

	cMakeTrapezoidal(qg)
	info.Delta, info.Eta = cAchieved(qg, ctrl)
	info.LogVol = cLogVolume(qg)
	info.Rank = n - info.Nullity
	return info, nil
}

func cShapeWorking(a *mat.CDense, m, n int) error {
	if a.IsEmpty() {
		a.ReuseAs(m, n)
	}
	am, an := a.Dims()
	if am != m || an != n {
		return fmt.Errorf("%w: output is %dx%d, want %dx%d", ErrInvalidArgument, am, an, m, n)
	}
	g := a.RawCMatrix()
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			g.Data[i*g.Stride+j] = 0
		}
	}
	return nil
}

func cShapeIdentity(a *mat.CDense, n int) error {
	if err := cShapeWorking(a, n, n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		a.Set(i, i, 1)
	}
	return nil
}

func cPresort(b, u, uInv *mat.CDense, smallestFirst bool) {
	m, n := b.Dims()
	bg := b.RawCMatrix()
	norms := make([]float64, n)
	for j := 0; j < n; j++ {
		norms[j] = cblas128.Nrm2(cColVec(bg, j, 0, m))
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

	perm := mat.NewCDense(m, n, nil)
	pg := perm.RawCMatrix()
	for j := 0; j < n; j++ {
		cblas128.Copy(cColVec(bg, idx[j], 0, m), cColVec(pg, j, 0, m))
	}
	for j := 0; j < n; j++ {
		cblas128.Copy(cColVec(pg, j, 0, m), cColVec(bg, j, 0, m))
	}

	if u != nil {
		for j := 0; j < n; j++ {
			u.Set(j, j, 0)
		}
		for j := 0; j < n; j++ {
			u.Set(idx[j], j, 1)
		}
	}
	if uInv != nil {
		for j := 0; j < n; j++ {
			uInv.Set(j, j, 0)
		}
		for j := 0; j < n; j++ {
			uInv.Set(j, idx[j], 1)
		}
	}
}

func cHeadReset(b, qr cblas128.General, t []complex128, d []float64, ctrl *Ctrl, tm *timers) (zero bool) {
	cExpandQR(0, b, qr, t, d, ctrl, tm)
	cHouseholderStep(0, qr, t, d)
	if cblas128.Nrm2(cColVec(b, 0, 0, b.Rows)) <= ctrl.ZeroTol {
		cZeroCol(b, 0)
		cZeroCol(qr, 0)
		return true
	}
	return false
}

func cUnblocked(b cblas128.General, u, uInv *cblas128.General, qr cblas128.General, t []complex128, d []float64, x []complex128, ctrl *Ctrl, info *Info) error {
	m, n := b.Rows, b.Cols
	minDim := len(t)
	tm := &timers{}

	nullity := 0
	if cHeadReset(b, qr, t, d, ctrl, tm) {
		nullity = 1
	}

	k := 1
	numSwaps := 0
	for k < n {
		zeroVector, err := cSizeReduceStep(k, b, u, uInv, qr, t, d, x, ctrl, tm)
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

		rhoPrev := cRdiag(qr, k-1)
		var offDiag complex128
		if k-1 < minDim {
			offDiag = qr.Data[(k-1)*qr.Stride+k]
		}
		leftTerm := math.Sqrt(ctrl.Delta) * rhoPrev
		rightTerm := dlapy3(cRdiag(qr, k), real(offDiag), imag(offDiag))
		if leftTerm <= rightTerm {
			k++
			continue
		}

		numSwaps++
		if ctrl.Progress {
			PrintA("Dropping from k=%d to %d since sqrt(delta)*R(k-1,k-1)=%g > %g\n",
				k, max(k-1, 1), leftTerm, rightTerm)
		}
		cblas128.Swap(cColVec(b, k-1, 0, m), cColVec(b, k, 0, m))
		if u != nil {
			cblas128.Swap(cColVec(*u, k-1, 0, u.Rows), cColVec(*u, k, 0, u.Rows))
		}
		if uInv != nil {
			cblas128.Swap(cRowVec(*uInv, k-1), cRowVec(*uInv, k))
		}
		if k == 1 {
			if cHeadReset(b, qr, t, d, ctrl, tm) {
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

func cUnblockedDeep(b cblas128.General, u, uInv *cblas128.General, qr cblas128.General, t []complex128, d []float64, x []complex128, ctrl *Ctrl, info *Info) error {
	m, n := b.Rows, b.Cols
	tm := &timers{}
	colBuf := make([]complex128, max(m, n))
	var rowBuf []complex128
	if uInv != nil {
		rowBuf = make([]complex128, n)
	}

	nullity := 0
	if cHeadReset(b, qr, t, d, ctrl, tm) {
		nullity = 1
	}

	k := 1
	numSwaps := 0
	for k < n {
		zeroVector, err := cSizeReduceStep(k, b, u, uInv, qr, t, d, x, ctrl, tm)
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
		origNorm := cblas128.Nrm2(cColVec(qr, k, 0, min(k+1, m)))
		partialNorm := origNorm
		for i := 0; i < k; i++ {
			leftTerm := math.Sqrt(ctrl.Delta) * cRdiag(qr, i)
			if leftTerm > partialNorm {
				numSwaps++
				if ctrl.Progress {
					PrintA("Deep inserting k=%d into position i=%d since sqrt(delta)*R(i,i)=%g > %g\n",
						k, i, leftTerm, partialNorm)
				}
				cDeepColSwap(b, i, k, colBuf)
				if u != nil {
					cDeepColSwap(*u, i, k, colBuf)
				}
				if uInv != nil {
					cDeepRowSwap(*uInv, i, k, rowBuf)
				}
				if i == 0 {
					if cHeadReset(b, qr, t, d, ctrl, tm) {
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
			var rik complex128
			if i < m {
				rik = qr.Data[i*qr.Stride+k]
			}
			gamma := dlapy3(real(rik), imag(rik), 0) / partialNorm
			gamma = math.Max(0, (1-gamma)*(1+gamma))
			ratio := partialNorm / origNorm
			phi := gamma * ratio * ratio
			if phi <= SqEPS || deepAlwaysRecompute {
				lo, hi := i+1, min(k+1, m)
				if hi > lo {
					partialNorm = cblas128.Nrm2(cColVec(qr, k, lo, hi-lo))
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
