// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.7.15
//

package golll

import (
	"math"
	"math/cmplx"
	"time"

	"gonum.org/v1/gonum/blas/cblas128"
)

// cColVec views n entries of column j starting at row i0.
func cColVec(g cblas128.General, j, i0, n int) cblas128.Vector {
	return cblas128.Vector{N: n, Data: g.Data[i0*g.Stride+j:], Inc: g.Stride}
}

func cRowVec(g cblas128.General, i int) cblas128.Vector {
	return cblas128.Vector{N: g.Cols, Data: g.Data[i*g.Stride:], Inc: 1}
}

func cZeroCol(g cblas128.General, j int) {
	for i := 0; i < g.Rows; i++ {
		g.Data[i*g.Stride+j] = 0
	}
}

// cRdiag reads the real diagonal entry R(i,i), zero below the
// trapezoidal profile.
func cRdiag(qr cblas128.General, i int) float64 {
	if i >= qr.Rows {
		return 0
	}
	return real(qr.Data[i*qr.Stride+i])
}

const (
	dlamchS = 2.2250738585072014e-308 // Smallest normal float64
	safmin  = dlamchS / EPS
)

func dlapy3(x, y, z float64) float64 {
	w := math.Max(math.Abs(x), math.Max(math.Abs(y), math.Abs(z)))
	if w == 0 {
		return 0
	}
	x /= w
	y /= w
	z /= w
	return w * math.Sqrt(x*x+y*y+z*z)
}

// zlarfg generates the complex elementary left reflector
//
//	(I - tau*v*v^H) * [alpha; x] = [beta; 0],
//
// with beta real and v = [1; x/(alpha-beta)] stored over x. gonum has
// no complex LAPACK implementation, so this follows the reference
// zlarfg, with tau conjugated so that the reflector applies directly
// rather than as its adjoint. x holds n-1 entries spaced by incX.
func zlarfg(n int, alpha complex128, x []complex128, incX int) (beta, tau complex128) {
	if n <= 0 {
		return alpha, 0
	}
	xnorm := cblas128.Nrm2(cblas128.Vector{N: n - 1, Data: x, Inc: incX})
	alphr, alphi := real(alpha), imag(alpha)
	if xnorm == 0 && alphi == 0 {
		return alpha, 0
	}

	betaR := -math.Copysign(dlapy3(alphr, alphi, xnorm), alphr)
	knt := 0
	if math.Abs(betaR) < safmin {
		// Scale up to avoid underflow in the norm.
		rsafmn := 1 / safmin
		for math.Abs(betaR) < safmin && knt < 53 {
			knt++
			cblas128.Dscal(rsafmn, cblas128.Vector{N: n - 1, Data: x, Inc: incX})
			betaR *= rsafmn
			alphr *= rsafmn
			alphi *= rsafmn
		}
		xnorm = cblas128.Nrm2(cblas128.Vector{N: n - 1, Data: x, Inc: incX})
		betaR = -math.Copysign(dlapy3(alphr, alphi, xnorm), alphr)
	}

	tau = complex((betaR-alphr)/betaR, alphi/betaR)
	scale := 1 / (complex(alphr, alphi) - complex(betaR, 0))
	cblas128.Scal(scale, cblas128.Vector{N: n - 1, Data: x, Inc: incX})

	for j := 0; j < knt; j++ {
		betaR *= safmin
	}
	return complex(betaR, 0), tau
}

// cExpandQR copies column k of B into column k of QR and rotates it
// with the first min(k, minDim) stored reflectors.
func cExpandQR(k int, b, qr cblas128.General, t []complex128, d []float64, ctrl *Ctrl, tm *timers) {
	m := b.Rows
	nh := k
	if nh > len(t) {
		nh = len(t)
	}

	cblas128.Copy(cColVec(b, k, 0, m), cColVec(qr, k, 0, m))

	var start time.Time
	if ctrl.Time {
		start = time.Now()
	}
	for orthog := 0; orthog < ctrl.NumOrthog; orthog++ {
		for i := 0; i < nh; i++ {
			alpha := qr.Data[i*qr.Stride+i]
			qr.Data[i*qr.Stride+i] = 1

			v := cColVec(qr, i, i, m-i)
			target := cColVec(qr, k, i, m-i)
			inner := cblas128.Dotc(v, target)
			cblas128.Axpy(-t[i]*inner, v, target)

			qr.Data[i*qr.Stride+k] *= complex(d[i], 0)

			qr.Data[i*qr.Stride+i] = alpha
		}
	}
	if ctrl.Time {
		tm.applyHouse += time.Since(start)
	}
}

// cHouseholderStep derives the k'th reflector from the expanded
// column k, leaving a non-negative real diagonal.
func cHouseholderStep(k int, qr cblas128.General, t []complex128, d []float64) {
	m := qr.Rows
	alpha := qr.Data[k*qr.Stride+k]
	var x []complex128
	if k+1 < m {
		x = qr.Data[(k+1)*qr.Stride+k:]
	}
	beta, tau := zlarfg(m-k, alpha, x, qr.Stride)
	t[k] = tau
	if real(beta) < 0 {
		d[k] = -1
		beta = -beta
	} else {
		d[k] = 1
	}
	qr.Data[k*qr.Stride+k] = beta
}

func cDeepColSwap(g cblas128.General, i, k int, buf []complex128) {
	m := g.Rows
	saved := cblas128.Vector{N: m, Data: buf[:m], Inc: 1}
	cblas128.Copy(cColVec(g, k, 0, m), saved)
	for l := k - 1; l >= i; l-- {
		cblas128.Copy(cColVec(g, l, 0, m), cColVec(g, l+1, 0, m))
	}
	cblas128.Copy(saved, cColVec(g, i, 0, m))
}

func cDeepRowSwap(g cblas128.General, i, k int, buf []complex128) {
	n := g.Cols
	saved := cblas128.Vector{N: n, Data: buf[:n], Inc: 1}
	cblas128.Copy(cRowVec(g, k), saved)
	for l := k - 1; l >= i; l-- {
		cblas128.Copy(cRowVec(g, l), cRowVec(g, l+1))
	}
	cblas128.Copy(saved, cRowVec(g, i))
}

func cMakeTrapezoidal(qr cblas128.General) {
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

// cAchieved computes the realized (delta, eta) pair, with the
// size-reduction bound taken over the real and imaginary parts
// independently.
func cAchieved(qr cblas128.General, ctrl *Ctrl) (delta, eta float64) {
	minDim := qr.Rows
	if qr.Cols < minDim {
		minDim = qr.Cols
	}
	delta = 1
	for i := 0; i+1 < minDim; i++ {
		rii := real(qr.Data[i*qr.Stride+i])
		if rii == 0 {
			continue
		}
		next := real(qr.Data[(i+1)*qr.Stride+i+1])
		off := cmplx.Abs(qr.Data[i*qr.Stride+i+1])
		v := (SQ(next) + SQ(off)) / SQ(rii)
		if v < delta {
			delta = v
		}
	}
	if delta < 0 {
		delta = 0
	}
	for i := 0; i < minDim; i++ {
		rii := real(qr.Data[i*qr.Stride+i])
		if rii == 0 {
			continue
		}
		for j := i + 1; j < qr.Cols; j++ {
			chi := qr.Data[i*qr.Stride+j]
			v := math.Max(math.Abs(real(chi)), math.Abs(imag(chi))) / rii
			if v > eta {
				eta = v
			}
		}
	}
	return delta, eta
}

func cLogVolume(qr cblas128.General) float64 {
	minDim := qr.Rows
	if qr.Cols < minDim {
		minDim = qr.Cols
	}
	logVol := 0.0
	for j := 0; j < minDim; j++ {
		rjj := real(qr.Data[j*qr.Stride+j])
		if rjj <= 0 {
			continue
		}
		logVol += 2 * math.Log(rjj)
	}
	return logVol
}
