// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.7.12
//

package golll

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
)

// sizeReduceStep makes column k of B size-reduced against columns
// 0..k-1 and leaves QR consistent, then takes the k'th Householder
// step. Reports true when the column collapsed to the zero vector.
//
// All updates to B are integer combinations of its columns: chi is
// rounded to an integer before any subtraction, so the lattice spanned
// by B is preserved while R(i,k) shrinks.
func sizeReduceStep(k int, b blas64.General, u, uInv *blas64.General, qr blas64.General, t, d, x []float64, ctrl *Ctrl, tm *timers) (bool, error) {
	m := b.Rows
	n := b.Cols
	minDim := len(t)

	for {
		expandQR(k, b, qr, t, d, ctrl, tm)

		oldNorm := blas64.Nrm2(colVec(b, k, 0, m))
		if !isFinite(oldNorm) || oldNorm > 1/EPS {
			return false, fmt.Errorf("%w: column %d norm %g", ErrPrecisionOverflow, k, oldNorm)
		}

		if oldNorm <= ctrl.ZeroTol {
			zeroCol(b, k)
			zeroCol(qr, k)
			if k < minDim {
				t[k] = 0.5
				d[k] = 1
			}
			return true, nil
		}

		var start time.Time
		if ctrl.Time {
			start = time.Now()
		}
		if ctrl.Weak {
			if k-1 < minDim {
				// R(k-1,k-1) is non-negative by construction.
				rho := qr.Data[(k-1)*qr.Stride+(k-1)]
				if rho > ctrl.ZeroTol {
					chi := qr.Data[(k-1)*qr.Stride+k] / rho
					if math.Abs(chi) > ctrl.Eta {
						chi = math.Round(chi)
						h := k
						if h > m {
							h = m
						}
						blas64.Axpy(-chi, colVec(qr, k-1, 0, h), colVec(qr, k, 0, h))
						blas64.Axpy(-chi, colVec(b, k-1, 0, m), colVec(b, k, 0, m))
						if u != nil {
							blas64.Axpy(-chi, colVec(*u, k-1, 0, n), colVec(*u, k, 0, n))
						}
						if uInv != nil {
							blas64.Axpy(chi, rowVec(*uInv, k), rowVec(*uInv, k-1))
						}
					}
				}
			}
		} else {
			for i := k - 1; i >= 0; i-- {
				x[i] = 0
				if i >= minDim {
					continue
				}
				rii := qr.Data[i*qr.Stride+i]
				if math.Abs(rii) <= ctrl.ZeroTol {
					continue
				}
				chi := qr.Data[i*qr.Stride+k] / rii
				if math.Abs(chi) > ctrl.Eta {
					chi = math.Round(chi)
					blas64.Axpy(-chi, colVec(qr, i, 0, i+1), colVec(qr, k, 0, i+1))
					x[i] = chi
				}
			}
			xv := blas64.Vector{N: k, Data: x[:k], Inc: 1}
			blas64.Gemv(blas.NoTrans, -1,
				blas64.General{Rows: m, Cols: k, Stride: b.Stride, Data: b.Data},
				xv, 1, colVec(b, k, 0, m))
			if u != nil {
				blas64.Gemv(blas.NoTrans, -1,
					blas64.General{Rows: n, Cols: k, Stride: u.Stride, Data: u.Data},
					xv, 1, colVec(*u, k, 0, n))
			}
			if uInv != nil {
				// UInv[0..k-1,:] += x * UInv[k,:] keeps U*UInv = I.
				blas64.Ger(1, xv, rowVec(*uInv, k),
					blas64.General{Rows: k, Cols: n, Stride: uInv.Stride, Data: uInv.Data})
			}
		}
		newNorm := blas64.Nrm2(colVec(b, k, 0, m))
		if ctrl.Time {
			tm.round += time.Since(start)
		}
		if !isFinite(newNorm) || newNorm > 1/EPS {
			return false, fmt.Errorf("%w: column %d norm %g", ErrPrecisionOverflow, k, newNorm)
		}

		if newNorm > ctrl.ReorthogTol*oldNorm {
			break
		}
		if ctrl.Progress {
			PrintA("  Reorthogonalizing with k=%d since oldNorm=%g and newNorm=%g\n", k, oldNorm, newNorm)
		}
	}

	if k < minDim {
		householderStep(k, qr, t, d)
	}
	return false, nil
}
