// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.7.15
//

package golll

import (
	"fmt"
	"math"
	"math/cmplx"
	"time"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
)

func overEta(chi complex128, eta float64) bool {
	return math.Abs(real(chi)) > eta || math.Abs(imag(chi)) > eta
}

// cSizeReduceStep is the complex mirror of sizeReduceStep: column k of
// B is reduced against columns 0..k-1 with chi rounded to the nearest
// Gaussian integer, so every update is an integer combination of the
// basis columns.
func cSizeReduceStep(k int, b cblas128.General, u, uInv *cblas128.General, qr cblas128.General, t []complex128, d []float64, x []complex128, ctrl *Ctrl, tm *timers) (bool, error) {
	m := b.Rows
	n := b.Cols
	minDim := len(t)

	for {
		cExpandQR(k, b, qr, t, d, ctrl, tm)

		oldNorm := cblas128.Nrm2(cColVec(b, k, 0, m))
		if !isFinite(oldNorm) || oldNorm > 1/EPS {
			return false, fmt.Errorf("%w: column %d norm %g", ErrPrecisionOverflow, k, oldNorm)
		}

		if oldNorm <= ctrl.ZeroTol {
			cZeroCol(b, k)
			cZeroCol(qr, k)
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
				rho := real(qr.Data[(k-1)*qr.Stride+(k-1)])
				if rho > ctrl.ZeroTol {
					chi := qr.Data[(k-1)*qr.Stride+k] / complex(rho, 0)
					if overEta(chi, ctrl.Eta) {
						chi = roundC(chi)
						h := k
						if h > m {
							h = m
						}
						cblas128.Axpy(-chi, cColVec(qr, k-1, 0, h), cColVec(qr, k, 0, h))
						cblas128.Axpy(-chi, cColVec(b, k-1, 0, m), cColVec(b, k, 0, m))
						if u != nil {
							cblas128.Axpy(-chi, cColVec(*u, k-1, 0, n), cColVec(*u, k, 0, n))
						}
						if uInv != nil {
							cblas128.Axpy(chi, cRowVec(*uInv, k), cRowVec(*uInv, k-1))
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
				if cmplx.Abs(rii) <= ctrl.ZeroTol {
					continue
				}
				chi := qr.Data[i*qr.Stride+k] / rii
				if overEta(chi, ctrl.Eta) {
					chi = roundC(chi)
					cblas128.Axpy(-chi, cColVec(qr, i, 0, i+1), cColVec(qr, k, 0, i+1))
					x[i] = chi
				}
			}
			xv := cblas128.Vector{N: k, Data: x[:k], Inc: 1}
			cblas128.Gemv(blas.NoTrans, -1,
				cblas128.General{Rows: m, Cols: k, Stride: b.Stride, Data: b.Data},
				xv, 1, cColVec(b, k, 0, m))
			if u != nil {
				cblas128.Gemv(blas.NoTrans, -1,
					cblas128.General{Rows: n, Cols: k, Stride: u.Stride, Data: u.Data},
					xv, 1, cColVec(*u, k, 0, n))
			}
			if uInv != nil {
				cblas128.Geru(1, xv, cRowVec(*uInv, k),
					cblas128.General{Rows: k, Cols: n, Stride: uInv.Stride, Data: uInv.Data})
			}
		}
		newNorm := cblas128.Nrm2(cColVec(b, k, 0, m))
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
		cHouseholderStep(k, qr, t, d)
	}
	return false, nil
}
