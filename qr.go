// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.7.12
//

package golll

import (
	"math"
	"time"

	"gonum.org/v1/gonum/blas/blas64"
	lapgonum "gonum.org/v1/gonum/lapack/gonum"
	"gonum.org/v1/gonum/mat"
)

var lapackImpl lapgonum.Implementation

// colVec views n entries of column j starting at row i0.
func colVec(g blas64.General, j, i0, n int) blas64.Vector {
	return blas64.Vector{N: n, Data: g.Data[i0*g.Stride+j:], Inc: g.Stride}
}

// rowVec views row i, which is contiguous in the row-major layout.
func rowVec(g blas64.General, i int) blas64.Vector {
	return blas64.Vector{N: g.Cols, Data: g.Data[i*g.Stride:], Inc: 1}
}

func zeroCol(g blas64.General, j int) {
	for i := 0; i < g.Rows; i++ {
		g.Data[i*g.Stride+j] = 0
	}
}

// rdiag reads R(i,i), which is zero below the trapezoidal profile.
func rdiag(qr blas64.General, i int) float64 {
	if i >= qr.Rows {
		return 0
	}
	return qr.Data[i*qr.Stride+i]
}

// expandQR copies column k of B into column k of QR and rotates it with
// the first min(k, minDim) stored reflectors. The reflector i is kept in
// QR[i+1..m, i] with an implicit unit head; its scalar is t[i] and d[i]
// is the sign that normalized R(i,i).
func expandQR(k int, b, qr blas64.General, t, d []float64, ctrl *Ctrl, tm *timers) {
	m := b.Rows
	nh := k
	if nh > len(t) {
		nh = len(t)
	}

	blas64.Copy(colVec(b, k, 0, m), colVec(qr, k, 0, m))

	var start time.Time
	if ctrl.Time {
		start = time.Now()
	}
	for orthog := 0; orthog < ctrl.NumOrthog; orthog++ {
		for i := 0; i < nh; i++ {
			// Temporarily replace QR(i,i) with the reflector's
			// implicit unit head.
			alpha := qr.Data[i*qr.Stride+i]
			qr.Data[i*qr.Stride+i] = 1

			v := colVec(qr, i, i, m-i)
			target := colVec(qr, k, i, m-i)
			inner := blas64.Dot(v, target)
			blas64.Axpy(-t[i]*inner, v, target)

			// Fix the scaling of the new R(i,k).
			qr.Data[i*qr.Stride+k] *= d[i]

			qr.Data[i*qr.Stride+i] = alpha
		}
	}
	if ctrl.Time {
		tm.applyHouse += time.Since(start)
	}
}

// householderStep derives the k'th reflector from the expanded column k,
// zeroing QR[k+1..m, k] and leaving a non-negative real diagonal.
func householderStep(k int, qr blas64.General, t, d []float64) {
	m := qr.Rows
	alpha := qr.Data[k*qr.Stride+k]
	var x []float64
	if k+1 < m {
		x = qr.Data[(k+1)*qr.Stride+k:]
	}
	beta, tau := lapackImpl.Dlarfg(m-k, alpha, x, qr.Stride)
	t[k] = tau
	if beta < 0 {
		d[k] = -1
		beta = -beta
	} else {
		d[k] = 1
	}
	qr.Data[k*qr.Stride+k] = beta
}

// deepColSwap rotates column k into position i, shifting columns
// i..k-1 one position right. buf must hold at least Rows entries.
func deepColSwap(g blas64.General, i, k int, buf []float64) {
	m := g.Rows
	saved := blas64.Vector{N: m, Data: buf[:m], Inc: 1}
	blas64.Copy(colVec(g, k, 0, m), saved)
	for l := k - 1; l >= i; l-- {
		blas64.Copy(colVec(g, l, 0, m), colVec(g, l+1, 0, m))
	}
	blas64.Copy(saved, colVec(g, i, 0, m))
}

// deepRowSwap is the row-oriented dual used for the inverse transform.
func deepRowSwap(g blas64.General, i, k int, buf []float64) {
	n := g.Cols
	saved := blas64.Vector{N: n, Data: buf[:n], Inc: 1}
	blas64.Copy(rowVec(g, k), saved)
	for l := k - 1; l >= i; l-- {
		blas64.Copy(rowVec(g, l), rowVec(g, l+1))
	}
	blas64.Copy(saved, rowVec(g, i))
}

// makeTrapezoidal discards the sub-diagonal reflector data, leaving the
// upper-trapezoidal R.
func makeTrapezoidal(qr blas64.General) {
	for i := 1; i < qr.Rows; i++ {
		jmax := i
		if jmax > qr.Cols {
			jmax = qr.Cols
		}
		for j := 0; j < jmax; j++ {
			qr.Data[i*qr.Stride+j] = 0
		}
	}
}

// achieved computes the realized (delta, eta) pair of a trapezoidal R,
// skipping terms with a zero diagonal.
func achieved(qr blas64.General, ctrl *Ctrl) (delta, eta float64) {
	minDim := qr.Rows
	if qr.Cols < minDim {
		minDim = qr.Cols
	}
	delta = 1
	for i := 0; i+1 < minDim; i++ {
		rii := qr.Data[i*qr.Stride+i]
		if rii == 0 {
			continue
		}
		v := (SQ(qr.Data[(i+1)*qr.Stride+i+1]) + SQ(qr.Data[i*qr.Stride+i+1])) / SQ(rii)
		if v < delta {
			delta = v
		}
	}
	if delta < 0 {
		delta = 0
	}
	for i := 0; i < minDim; i++ {
		rii := qr.Data[i*qr.Stride+i]
		if rii == 0 {
			continue
		}
		for j := i + 1; j < qr.Cols; j++ {
			v := math.Abs(qr.Data[i*qr.Stride+j]) / rii
			if v > eta {
				eta = v
			}
		}
	}
	return delta, eta
}

// logVolume returns 2*sum(log R(j,j)) over the nonzero diagonal, so
// that exp(logVolume/2) is the product of the nonzero R(j,j). Zero
// diagonals of a rank-deficient basis are skipped rather than
// saturating the sum.
func logVolume(qr blas64.General) float64 {
	minDim := qr.Rows
	if qr.Cols < minDim {
		minDim = qr.Cols
	}
	logVol := 0.0
	for j := 0; j < minDim; j++ {
		rjj := qr.Data[j*qr.Stride+j]
		if rjj <= 0 {
			continue
		}
		logVol += 2 * math.Log(rjj)
	}
	return logVol
}

// LogPotential returns sum_j 2*(n-j)*log|R(j,j)| of an upper-trapezoidal
// R, skipping zero diagonals.
func LogPotential(r *mat.Dense) float64 {
	g := r.RawMatrix()
	minDim := g.Rows
	if g.Cols < minDim {
		minDim = g.Cols
	}
	pot := 0.0
	for j := 0; j < minDim; j++ {
		rjj := math.Abs(g.Data[j*g.Stride+j])
		if rjj == 0 {
			continue
		}
		pot += 2 * float64(g.Cols-j) * math.Log(rjj)
	}
	return pot
}
