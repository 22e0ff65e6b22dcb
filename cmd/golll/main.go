// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.7.20
//

package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	m "github.com/mkhts/golll"
	"gonum.org/v1/gonum/mat"
)

type cmdOpt struct {
	mode     string // reduce | zdep | algrel
	inFn     string
	delta    float64
	eta      float64
	weak     bool
	deep     bool
	presort  bool
	largest  bool
	reorthog float64
	orthog   int
	zeroTol  float64
	progress bool
	time     bool
	alpha    float64
	degree   int
	nSqrt    float64
	dbg      int
}

func main() {

	// Parse command line arguments
	args, err := parseArgs()
	if err != nil {
		flag.Usage()
		os.Exit(1)
	}
	m.DBG_ = args.dbg

	// Run the main application
	if err := runApplication(args); err != nil {
		m.PrintE(err)
		os.Exit(1)
	}
}

func parseArgs() (cmdOpt, error) {
	var args cmdOpt
	flag.StringVar(&args.mode, "mode", "reduce", "reduce | zdep | algrel")
	flag.Float64Var(&args.delta, "delta", m.DeltaDefault, "Lovasz parameter in (1/4, 1]")
	flag.Float64Var(&args.eta, "eta", m.EtaDefault, "size-reduction bound >= 1/2")
	flag.BoolVar(&args.weak, "weak", false, "nearest-neighbor size reduction only")
	flag.BoolVar(&args.deep, "deep", false, "deep insertion instead of adjacent swaps")
	flag.BoolVar(&args.presort, "presort", true, "pre-order the columns by norm")
	flag.BoolVar(&args.largest, "largest", false, "presort largest-norm first")
	flag.Float64Var(&args.reorthog, "reorthog", 0, "reorthogonalization tolerance")
	flag.IntVar(&args.orthog, "orthog", 1, "orthogonalization passes per column")
	flag.Float64Var(&args.zeroTol, "zerotol", m.ZeroTolDefault, "zero-column tolerance")
	flag.BoolVar(&args.progress, "progress", false, "print reduction decisions")
	flag.BoolVar(&args.time, "time", false, "print kernel timings")
	flag.Float64Var(&args.alpha, "alpha", 0, "algebraic-relation target (mode algrel)")
	flag.IntVar(&args.degree, "degree", 2, "polynomial degree (mode algrel)")
	flag.Float64Var(&args.nSqrt, "nsqrt", 1e6, "sqrt(N) weight of the dependence row")
	flag.IntVar(&args.dbg, "v", 0, "debug display level")
	flag.Parse()

	switch args.mode {
	case "reduce", "zdep":
		if flag.NArg() < 1 {
			return args, fmt.Errorf("no input file")
		}
		args.inFn = flag.Arg(0)
	case "algrel":
	default:
		return args, fmt.Errorf("unknown mode %q", args.mode)
	}
	return args, nil
}

func (a cmdOpt) ctrl() *m.Ctrl {
	ctrl := m.DefaultCtrl()
	ctrl.Delta = a.delta
	ctrl.Eta = a.eta
	ctrl.Weak = a.weak
	ctrl.Deep = a.deep
	ctrl.Presort = a.presort
	ctrl.SmallestFirst = !a.largest
	ctrl.ReorthogTol = a.reorthog
	ctrl.NumOrthog = a.orthog
	ctrl.ZeroTol = a.zeroTol
	ctrl.Progress = a.progress
	ctrl.Time = a.time
	return ctrl
}

// Main application processing
func runApplication(args cmdOpt) error {
	switch args.mode {
	case "reduce":
		return runReduce(args)
	case "zdep":
		return runZDependence(args)
	case "algrel":
		return runAlgebraicRelation(args)
	}
	return nil
}

func runReduce(args cmdOpt) error {
	b, err := readMatrix(args.inFn)
	if err != nil {
		return fmt.Errorf("failed to read basis: %w", err)
	}
	var u, r mat.Dense
	info, err := m.LLLFull(b, &u, nil, &r, args.ctrl())
	if err != nil {
		return err
	}
	printInfo(info)
	fmt.Printf("D =\n%v\n", mat.Formatted(b))
	fmt.Printf("U =\n%v\n", mat.Formatted(&u))
	if m.DBG_ >= 1 {
		m.PrintA("R =\n")
		m.PrintMat(&r)
	}
	return nil
}

func runZDependence(args cmdOpt) error {
	z, err := readVector(args.inFn)
	if err != nil {
		return fmt.Errorf("failed to read target: %w", err)
	}
	num, b, u, err := m.ZDependenceSearch(z, args.nSqrt, args.ctrl())
	if err != nil {
		return err
	}
	fmt.Printf("num \"exact\": %d\n", num)
	fmt.Printf("B =\n%v\n", mat.Formatted(b))
	fmt.Printf("U =\n%v\n", mat.Formatted(u))
	return nil
}

func runAlgebraicRelation(args cmdOpt) error {
	num, b, u, err := m.AlgebraicRelationSearch(args.alpha, args.degree, args.nSqrt, args.ctrl())
	if err != nil {
		return err
	}
	fmt.Printf("num \"exact\": %d\n", num)
	fmt.Printf("B =\n%v\n", mat.Formatted(b))
	fmt.Printf("U =\n%v\n", mat.Formatted(u))
	return nil
}

func printInfo(info m.Info) {
	fmt.Printf("delta    : %.6f\n", info.Delta)
	fmt.Printf("eta      : %.6f\n", info.Eta)
	fmt.Printf("rank     : %d\n", info.Rank)
	fmt.Printf("nullity  : %d\n", info.Nullity)
	fmt.Printf("numSwaps : %d\n", info.NumSwaps)
	fmt.Printf("logVol   : %.6f\n", info.LogVol)
	if info.Rank > 0 {
		fmt.Printf("GH       : %.6f\n", m.GaussianHeuristic(info.Rank, info.LogVol))
	}
}

// readMatrix loads a whitespace-separated matrix, one row per line.
func readMatrix(fn string) (*mat.Dense, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows [][]float64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		row := make([]float64, len(fields))
		for i, s := range fields {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("bad entry %q: %w", s, err)
			}
			row[i] = v
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, fmt.Errorf("ragged row of length %d, want %d", len(row), len(rows[0]))
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty matrix")
	}

	b := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, row := range rows {
		b.SetRow(i, row)
	}
	return b, nil
}

// readVector loads a whitespace-separated column of numbers.
func readVector(fn string) (*mat.VecDense, error) {
	a, err := readMatrix(fn)
	if err != nil {
		return nil, err
	}
	r, c := a.Dims()
	if c != 1 && r != 1 {
		return nil, fmt.Errorf("target must be a single row or column, got %dx%d", r, c)
	}
	if r == 1 && c > 1 {
		a = mat.DenseCopyOf(a.T())
		r = c
	}
	z := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		z.SetVec(i, a.At(i, 0))
	}
	return z, nil
}
