// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.7.12
//

package golll

import (
	"errors"
	"fmt"
	"time"
)

// Fatal error classes surfaced by the reducer. Wrapped values carry
// context; test with errors.Is.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrPrecisionOverflow = errors.New("precision overflow; raise the working precision")
)

// Ctrl holds the parameters of an LLL reduction. It is read-only for
// the duration of a reduction.
type Ctrl struct {
	Delta float64 // Lovasz parameter, in (1/4, 1]
	Eta   float64 // Size-reduction bound, >= 1/2

	// Weak reduction only size-reduces against the nearest-neighbor
	// column; the default performs full back-substitution.
	Weak bool

	// Deep insertion (Schnorr-Euchner) rotates a tail column into any
	// earlier position instead of the classic adjacent swap.
	Deep bool

	// Presort pre-orders the columns by Euclidean norm, which tends to
	// greatly decrease the number of swaps.
	Presort       bool
	SmallestFirst bool

	// If a size-reduced column has a two-norm no larger than
	// ReorthogTol times the original two-norm, the orthogonalization
	// is re-run before the Householder step. Zero disables the retry.
	ReorthogTol float64

	// Number of times to apply the accumulated reflectors when
	// expanding a column; values above one improve orthogonality.
	NumOrthog int

	// Columns whose two-norm falls to ZeroTol or below are forced to
	// the zero vector.
	ZeroTol float64

	Progress bool // Emit per-decision diagnostics on stderr
	Time     bool // Aggregate and report kernel timings
}

// DefaultCtrl returns the standard parameter set: delta=3/4,
// eta=1/2+eps^0.9, full reduction, adjacent swaps, norm presorting.
func DefaultCtrl() *Ctrl {
	return &Ctrl{
		Delta:         DeltaDefault,
		Eta:           EtaDefault,
		Presort:       true,
		SmallestFirst: true,
		ReorthogTol:   0,
		NumOrthog:     1,
		ZeroTol:       ZeroTolDefault,
	}
}

func (c *Ctrl) validate() error {
	if !(c.Delta > 0.25 && c.Delta <= 1) {
		return fmt.Errorf("%w: delta=%g outside (1/4, 1]", ErrInvalidArgument, c.Delta)
	}
	if c.Eta < 0.5 {
		return fmt.Errorf("%w: eta=%g below 1/2", ErrInvalidArgument, c.Eta)
	}
	if c.ReorthogTol < 0 {
		return fmt.Errorf("%w: reorthogTol=%g negative", ErrInvalidArgument, c.ReorthogTol)
	}
	if c.NumOrthog < 1 {
		return fmt.Errorf("%w: numOrthog=%d below 1", ErrInvalidArgument, c.NumOrthog)
	}
	if c.ZeroTol < 0 {
		return fmt.Errorf("%w: zeroTol=%g negative", ErrInvalidArgument, c.ZeroTol)
	}
	return nil
}

// Info summarizes a finished reduction.
type Info struct {
	Delta    float64 // Achieved Lovasz parameter
	Eta      float64 // Achieved size-reduction bound
	Rank     int
	Nullity  int
	NumSwaps int
	LogVol   float64 // 2 * sum of log R(j,j) over the nonzero diagonal
}

// Kernel timing aggregates, reported when Ctrl.Time is set.
type timers struct {
	applyHouse time.Duration
	round      time.Duration
}

func (tm *timers) report() {
	PrintA("  Apply Householder time: %v\n", tm.applyHouse)
	PrintA("  Round time:             %v\n", tm.round)
}
