// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.7.22
//

package golll

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

// Knapsack-style instance: the target carries the hidden relation
// 1*z0 + 2*z1 + 3*z2 - z3 = 0, and the irrational entries leave no
// shorter relation.
func TestZDependenceSearchKnapsack(t *testing.T) {
	z0, z1, z2 := math.Sqrt(2), math.Sqrt(3), math.Sqrt(5)
	z := mat.NewVecDense(4, []float64{z0, z1, z2, z0 + 2*z1 + 3*z2})
	nSqrt := 1e5 // N = 1e10

	num, b, u, err := ZDependenceSearch(z, nSqrt, DefaultCtrl())
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, num, 1)

	want := []float64{1, 2, 3, -1}
	found := false
	for j := 0; j < 4 && !found; j++ {
		for _, sign := range []float64{1, -1} {
			ok := true
			for i := 0; i < 4; i++ {
				if math.Abs(b.At(i, j)-sign*want[i]) > 1e-9 {
					ok = false
					break
				}
			}
			if ok {
				found = true
				// The transform column carries the same combination.
				for i := 0; i < 4; i++ {
					assert.InDelta(t, sign*want[i], u.At(i, j), 1e-9)
				}
				break
			}
		}
	}
	assert.True(t, found, "recovered combination is not (1,2,3,-1) up to sign")
}

func TestAlgebraicRelationSearchSqrt2(t *testing.T) {
	alpha := math.Sqrt2
	num, b, u, err := AlgebraicRelationSearch(alpha, 2, 1e6, DefaultCtrl())
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, num, 1)

	// Some column of U encodes c0 + c1*alpha + c2*alpha^2 = 0, i.e.
	// the minimal polynomial alpha^2 - 2 up to sign.
	found := false
	for j := 0; j < 3; j++ {
		c0, c1, c2 := u.At(0, j), u.At(1, j), u.At(2, j)
		if c0 == 0 && c1 == 0 && c2 == 0 {
			continue
		}
		res := math.Abs(c0 + c1*alpha + c2*alpha*alpha)
		if res <= 1e-6 {
			found = true
			assert.InDelta(t, 0, math.Abs(c1), 1e-9)
			assert.InDelta(t, 2, math.Abs(c0), 1e-9)
			assert.InDelta(t, 1, math.Abs(c2), 1e-9)
		}
	}
	assert.True(t, found, "no column annihilates sqrt(2) to 1e-6")
	_ = b
}

func TestZDependenceSearchInvalid(t *testing.T) {
	z := mat.NewVecDense(2, []float64{1, 2})
	_, _, _, err := ZDependenceSearch(z, 0, DefaultCtrl())
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, _, _, err = AlgebraicRelationSearch(1.5, 0, 1e6, DefaultCtrl())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestLatticeImageAndKernel(t *testing.T) {
	b := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		2, 4, 6,
	})
	bIn := mat.DenseCopyOf(b)
	img, ker, err := LatticeImageAndKernel(b, DefaultCtrl())
	assert.NoError(t, err)

	_, imgCols := img.Dims()
	kr, kerCols := ker.Dims()
	assert.Equal(t, 1, imgCols)
	assert.Equal(t, 2, kerCols)
	assert.Equal(t, 3, kr)

	// Every kernel column maps the original basis to zero.
	for j := 0; j < kerCols; j++ {
		var prod mat.VecDense
		prod.MulVec(bIn, ker.ColView(j))
		assert.InDelta(t, 0, mat.Norm(&prod, 2), 1e-9, "kernel column %d", j)
	}

	// The image column generates the rank-1 lattice.
	assert.Greater(t, mat.Norm(img.ColView(0), 2), ZeroTolDefault)
}

func TestLatticeKernel(t *testing.T) {
	b := mat.NewDense(2, 2, []float64{
		1, 0,
		0, 1,
	})
	ker, err := LatticeKernel(b, DefaultCtrl())
	assert.NoError(t, err)
	assert.True(t, ker.IsEmpty(), "full-rank basis has no kernel")
}

func TestGaussianHeuristic(t *testing.T) {
	// Rank 2, unit volume: GH = Gamma(2)^{1/2}/sqrt(pi) = 1/sqrt(pi).
	assert.InDelta(t, 1/math.Sqrt(math.Pi), GaussianHeuristic(2, 0), 1e-12)
	assert.Greater(t, GaussianHeuristic(10, 3.5), 0.0)
}

func TestLogPotential(t *testing.T) {
	r := mat.NewDense(2, 2, []float64{
		1, 0.5,
		0, 2,
	})
	// 2*2*log(1) + 2*1*log(2)
	assert.InDelta(t, 2*math.Log(2), LogPotential(r), 1e-12)
}
