// Copyright 2019 United States Government as represented by the Administrator of
// the National Aeronautics and Space Administration. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package backend

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// LUBackend is the CPU_LU fallback used when Cholesky reports a singular
// matrix: partial pivoting tolerates the indefinite or near-singular systems
// a strict Cholesky factorization rejects.
type LUBackend struct {
	lu       mat.LU
	n        int
	singular bool
}

// NewLU allocates an empty LU backend.
func NewLU() *LUBackend { return &LUBackend{} }

func (b *LUBackend) Kind() Kind { return CPULU }

func (b *LUBackend) Decompose(a []float64, n int) Status {
	b.n = n
	dense := mat.NewDense(n, n, append([]float64(nil), a...))
	b.lu.Factorize(dense)
	cond := b.lu.Cond()
	b.singular = math.IsInf(cond, 1) || math.IsNaN(cond)
	if b.singular {
		return Singular
	}
	return OK
}

func (b *LUBackend) Solve(dst, rhs []float64) {
	if b.singular {
		for i := range dst {
			dst[i] = 0
		}
		return
	}
	bvec := mat.NewVecDense(b.n, rhs)
	var x mat.VecDense
	if err := b.lu.SolveVecTo(&x, false, bvec); err != nil {
		b.singular = true
		for i := range dst {
			dst[i] = 0
		}
		return
	}
	for i := 0; i < b.n; i++ {
		dst[i] = x.AtVec(i)
	}
}

func (b *LUBackend) IsSingular() bool { return b.singular }
