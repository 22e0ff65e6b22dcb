// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.7.22
//

package golll

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func cMulDense(a, b *mat.CDense) *mat.CDense {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ac != br {
		panic("dimension mismatch")
	}
	out := mat.NewCDense(ar, bc, nil)
	for i := 0; i < ar; i++ {
		for j := 0; j < bc; j++ {
			var s complex128
			for l := 0; l < ac; l++ {
				s += a.At(i, l) * b.At(l, j)
			}
			out.Set(i, j, s)
		}
	}
	return out
}

func cCloneDense(a *mat.CDense) *mat.CDense {
	r, c := a.Dims()
	out := mat.NewCDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, a.At(i, j))
		}
	}
	return out
}

// cCheckReduced verifies the Gaussian size-reduction bound on the real
// and imaginary parts and the Lovasz condition.
func cCheckReduced(t *testing.T, r *mat.CDense, delta, eta float64) {
	t.Helper()
	rm, rn := r.Dims()
	minDim := min(rm, rn)
	for i := 0; i < minDim; i++ {
		rii := real(r.At(i, i))
		assert.GreaterOrEqual(t, rii, 0.0, "R(%d,%d) negative", i, i)
		assert.InDelta(t, 0, imag(r.At(i, i)), 1e-12, "R(%d,%d) not real", i, i)
		if rii == 0 {
			continue
		}
		for j := i + 1; j < rn; j++ {
			chi := r.At(i, j)
			assert.LessOrEqual(t, math.Abs(real(chi))/rii, eta+SqEPS,
				"size reduction failed at Re R(%d,%d)", i, j)
			assert.LessOrEqual(t, math.Abs(imag(chi))/rii, eta+SqEPS,
				"size reduction failed at Im R(%d,%d)", i, j)
		}
	}
	for i := 0; i+1 < minDim; i++ {
		rii := real(r.At(i, i))
		rjj := real(r.At(i+1, i+1))
		if rii == 0 || rjj == 0 {
			continue
		}
		lhs := delta * rii * rii
		rhs := rjj*rjj + SQ(cmplx.Abs(r.At(i, i+1)))
		assert.LessOrEqual(t, lhs, rhs*(1+1e-9)+1e-12,
			"Lovasz failed at pair (%d,%d)", i, i+1)
	}
}

func cCheckInverse(t *testing.T, u, uInv *mat.CDense) {
	t.Helper()
	p := cMulDense(u, uInv)
	n, _ := u.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			want := complex128(0)
			if i == j {
				want = 1
			}
			assert.InDelta(t, 0, cmplx.Abs(p.At(i, j)-want), 1e-9,
				"U*UInv at (%d,%d)", i, j)
		}
	}
}

func cCheckConsistency(t *testing.T, bIn, u, bOut *mat.CDense) {
	t.Helper()
	d := cMulDense(bIn, u)
	r, c := bOut.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			assert.InDelta(t, 0, cmplx.Abs(d.At(i, j)-bOut.At(i, j)), 1e-8,
				"B_in*U != B_out at (%d,%d)", i, j)
		}
	}
}

func TestZlarfg(t *testing.T) {
	tests := []struct {
		name string
		x    []complex128
	}{
		{"generic", []complex128{3 + 4i, 1 - 2i, 0 + 2i}},
		{"realHead", []complex128{-5, 1, 2, 3}},
		{"imagHeadOnly", []complex128{2i}},
		{"zeroTail", []complex128{7, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := append([]complex128(nil), tt.x...)
			n := len(x)
			orig := append([]complex128(nil), tt.x...)
			beta, tau := zlarfg(n, x[0], x[1:], 1)

			assert.InDelta(t, 0, imag(beta), 1e-12, "beta not real")
			normIn := 0.0
			for _, v := range orig {
				normIn += SQ(cmplx.Abs(v))
			}
			assert.InDelta(t, math.Sqrt(normIn), cmplx.Abs(beta), 1e-12,
				"|beta| != ||x||")

			// Apply (I - tau v v^H) to the original column; the head
			// must become beta and the tail must vanish.
			v := append([]complex128{1}, x[1:]...)
			var inner complex128
			for i := range v {
				inner += cmplx.Conj(v[i]) * orig[i]
			}
			out := make([]complex128, n)
			for i := range v {
				out[i] = orig[i] - tau*inner*v[i]
			}
			assert.InDelta(t, 0, cmplx.Abs(out[0]-beta), 1e-10)
			for i := 1; i < n; i++ {
				assert.InDelta(t, 0, cmplx.Abs(out[i]), 1e-10, "tail %d", i)
			}
		})
	}

	t.Run("noop", func(t *testing.T) {
		beta, tau := zlarfg(1, 4+0i, nil, 1)
		assert.Equal(t, complex128(4), beta)
		assert.Equal(t, complex128(0), tau)
	})
}

func TestCLLLGaussianBasis(t *testing.T) {
	b := mat.NewCDense(2, 2, []complex128{
		2, 3 + 1i,
		0, 1,
	})
	bIn := cCloneDense(b)
	ctrl := DefaultCtrl()
	var u, uInv, r mat.CDense
	info, err := CLLLFull(b, &u, &uInv, &r, ctrl)
	assert.NoError(t, err)

	assert.Equal(t, 2, info.Rank)
	cCheckReduced(t, &r, info.Delta, ctrl.Eta)
	cCheckConsistency(t, bIn, &u, b)
	cCheckInverse(t, &u, &uInv)
	assert.LessOrEqual(t, info.Eta, ctrl.Eta+SqEPS)
}

func TestCLLLVariants(t *testing.T) {
	base := []complex128{
		20 + 1i, 7 - 2i, 3, 1 + 1i,
		0, 19 + 3i, 5 - 5i, 2,
		1 - 1i, 0, 21, 4 + 2i,
		0, 2 + 2i, 1, 22 - 3i,
	}
	tests := []struct {
		name string
		mod  func(*Ctrl)
	}{
		{"default", func(c *Ctrl) {}},
		{"weak", func(c *Ctrl) { c.Weak = true }},
		{"deep", func(c *Ctrl) { c.Deep = true }},
		{"noPresort", func(c *Ctrl) { c.Presort = false }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mat.NewCDense(4, 4, append([]complex128(nil), base...))
			bIn := cCloneDense(b)
			ctrl := DefaultCtrl()
			tt.mod(ctrl)
			var u, uInv mat.CDense
			info, err := CLLLFull(b, &u, &uInv, nil, ctrl)
			assert.NoError(t, err)
			assert.Equal(t, 4, info.Rank)
			assert.GreaterOrEqual(t, info.Delta, ctrl.Delta-1e-9)
			cCheckConsistency(t, bIn, &u, b)
			cCheckInverse(t, &u, &uInv)
		})
	}
}

func TestCAlgebraicRelationSearchI(t *testing.T) {
	// alpha = i satisfies alpha^2 + 1 = 0 exactly.
	num, _, u, err := CAlgebraicRelationSearch(1i, 2, 1e6, DefaultCtrl())
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, num, 1)

	found := false
	for j := 0; j < 3 && !found; j++ {
		c0, c1, c2 := u.At(0, j), u.At(1, j), u.At(2, j)
		res := cmplx.Abs(c0 + c1*1i + c2*(1i*1i))
		if (c0 != 0 || c1 != 0 || c2 != 0) && res <= 1e-6 {
			found = true
		}
	}
	assert.True(t, found, "no Gaussian relation for alpha=i")
}

func TestCZDependenceSearchInvalid(t *testing.T) {
	_, _, _, err := CZDependenceSearch(nil, 1e6, DefaultCtrl())
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, _, _, err = CZDependenceSearch([]complex128{1, 1i}, -1, DefaultCtrl())
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, _, _, err = CAlgebraicRelationSearch(1i, 0, 1e6, DefaultCtrl())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCLLLRankDeficient(t *testing.T) {
	// Third column is the sum of the first two.
	b := mat.NewCDense(2, 3, []complex128{
		1, 1i, 1 + 1i,
		1, 1, 2,
	})
	ctrl := DefaultCtrl()
	ctrl.Presort = false
	info, err := CLLL(b, ctrl)
	assert.NoError(t, err)
	assert.Equal(t, 1, info.Nullity)
	assert.Equal(t, 2, info.Rank)
}
