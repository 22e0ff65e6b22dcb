// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.7.18
//

package golll

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// CZDependenceSearch looks for Gaussian-integer relations of the
// entries of z, as ZDependenceSearch does for real targets.
func CZDependenceSearch(z []complex128, nSqrt float64, ctrl *Ctrl) (numExact int, b, u *mat.CDense, err error) {
	if ctrl == nil {
		ctrl = DefaultCtrl()
	}
	n := len(z)
	if n < 1 {
		return 0, nil, nil, fmt.Errorf("%w: empty z", ErrInvalidArgument)
	}
	if nSqrt <= 0 {
		return 0, nil, nil, fmt.Errorf("%w: NSqrt=%g not positive", ErrInvalidArgument, nSqrt)
	}

	b = mat.NewCDense(n+1, n, nil)
	for j := 0; j < n; j++ {
		b.Set(j, j, 1)
		b.Set(n, j, complex(nSqrt, 0)*z[j])
	}
	u = &mat.CDense{}

	if _, err := CLLLFull(b, u, nil, nil, ctrl); err != nil {
		return 0, b, u, err
	}

	for j := 0; j < n; j++ {
		if cmplx.Abs(b.At(n, j))/nSqrt <= SqEPS {
			numExact++
		}
	}
	return numExact, b, u, nil
}

// CAlgebraicRelationSearch looks for the Gaussian-integer coefficients
// of a degree-n polynomial that (nearly) annihilates alpha.
func CAlgebraicRelationSearch(alpha complex128, n int, nSqrt float64, ctrl *Ctrl) (numExact int, b, u *mat.CDense, err error) {
	if n < 1 {
		return 0, nil, nil, fmt.Errorf("%w: degree %d below 1", ErrInvalidArgument, n)
	}
	z := make([]complex128, n+1)
	pow := complex(1, 0)
	for i := 0; i <= n; i++ {
		z[i] = pow
		pow *= alpha
	}
	return CZDependenceSearch(z, nSqrt, ctrl)
}
