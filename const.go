// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.7.12
//

package golll

import "math"

const (
	EPS   = 2.220446049250313e-16 // Machine epsilon of float64
	SqEPS = 1.4901161193847656e-8 // sqrt(EPS)
)

// Default control parameters. DeltaDefault is the classic 3/4 Lovasz
// bound; EtaDefault and ZeroTolDefault follow eps^0.9 so that they
// track the working precision.
var (
	DeltaDefault   = 0.75
	EtaDefault     = 0.5 + math.Pow(EPS, 0.9)
	ZeroTolDefault = math.Pow(EPS, 0.9)
)
