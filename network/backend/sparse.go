// Copyright 2019 United States Government as represented by the Administrator of
// the National Aeronautics and Space Administration. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package backend

import (
	"gonum.org/v1/gonum/linsolve"
	"gonum.org/v1/gonum/mat"
)

// SparseBackend is the CPU_SPARSE variant for large sparse islands. Big
// networks are mostly nearest-neighbor-connected (capacitors and conductors
// to adjacent nodes), so a dense factorization wastes memory and time the
// matrix's sparsity doesn't require. Admittance matrices are symmetric PSD
// by construction, which is exactly conjugate gradient's applicability
// condition, so the solve is linsolve.Iterative with CG.
type SparseBackend struct {
	a        *mat.SymDense
	n        int
	singular bool
	settings linsolve.Settings
}

// NewSparse allocates an empty sparse backend.
func NewSparse() *SparseBackend { return &SparseBackend{} }

func (b *SparseBackend) Kind() Kind { return CPUSparse }

// MulVecTo implements linsolve.MulVecToer, treating the symmetric A as the
// operator. CPU_SPARSE describes the solve strategy (iterative,
// matrix-free-capable), not that A itself must be stored in a compressed
// format; the island submatrices arrive dense from the assembler.
func (b *SparseBackend) MulVecTo(dst *mat.VecDense, _ bool, x mat.Vector) {
	dst.MulVec(b.a, x)
}

// Decompose only stores A for the iterative solve: there are no pivots, so
// it always returns OK. Singularity surfaces only when a later Solve fails,
// which sets IsSingular and zeroes the result.
func (b *SparseBackend) Decompose(a []float64, n int) Status {
	b.n = n
	b.a = mat.NewSymDense(n, append([]float64(nil), a...))
	b.singular = false
	b.settings = linsolve.Settings{
		Work: linsolve.NewContext(n),
	}
	return OK
}

func (b *SparseBackend) Solve(dst, rhs []float64) {
	bvec := mat.NewVecDense(b.n, append([]float64(nil), rhs...))
	settings := b.settings
	result, err := linsolve.Iterative(b, bvec, &linsolve.CG{}, &settings)
	if err != nil || result == nil {
		b.singular = true
		for i := range dst {
			dst[i] = 0
		}
		return
	}
	x := result.X
	for i := 0; i < b.n; i++ {
		dst[i] = x.AtVec(i)
	}
}

func (b *SparseBackend) IsSingular() bool { return b.singular }
