// Copyright 2019 United States Government as represented by the Administrator of
// the National Aeronautics and Space Administration. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package backend

import "gonum.org/v1/gonum/mat"

// CholeskyBackend is the default CPU_CHOLESKY backend: symmetric Cholesky
// factorization over a dense gonum SymDense. Required whenever any node in
// the island has a pending network-capacitance request, since the probe's
// A^-1 reads are only serviced behind a Cholesky factorization.
type CholeskyBackend struct {
	chol     mat.Cholesky
	n        int
	singular bool
}

// NewCholesky allocates an empty Cholesky backend.
func NewCholesky() *CholeskyBackend { return &CholeskyBackend{} }

func (b *CholeskyBackend) Kind() Kind { return CPUCholesky }

func (b *CholeskyBackend) Decompose(a []float64, n int) Status {
	b.n = n
	sym := mat.NewSymDense(n, append([]float64(nil), a...))
	ok := b.chol.Factorize(sym)
	b.singular = !ok
	if !ok {
		return Singular
	}
	return OK
}

func (b *CholeskyBackend) Solve(dst, rhs []float64) {
	if b.singular {
		for i := range dst {
			dst[i] = 0
		}
		return
	}
	bvec := mat.NewVecDense(b.n, rhs)
	var x mat.VecDense
	if err := b.chol.SolveVecTo(&x, bvec); err != nil {
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

func (b *CholeskyBackend) IsSingular() bool { return b.singular }

// InverseDiagonal returns A^-1[i][i] for the last-decomposed A, the
// network-capacitance value for local node i: its potential response to a
// unit flux injected at itself.
func (b *CholeskyBackend) InverseDiagonal(i int) float64 {
	if b.singular {
		return 0
	}
	unit := mat.NewVecDense(b.n, nil)
	unit.SetVec(i, 1)
	var x mat.VecDense
	if err := b.chol.SolveVecTo(&x, unit); err != nil {
		return 0
	}
	return x.AtVec(i)
}

// InverseColumn returns column i of A^-1: the delta-potential at every local
// node for a unit flux injected at local node i.
func (b *CholeskyBackend) InverseColumn(i int) []float64 {
	if b.singular {
		return make([]float64, b.n)
	}
	unit := mat.NewVecDense(b.n, nil)
	unit.SetVec(i, 1)
	var x mat.VecDense
	if err := b.chol.SolveVecTo(&x, unit); err != nil {
		return make([]float64, b.n)
	}
	out := make([]float64, b.n)
	for k := 0; k < b.n; k++ {
		out[k] = x.AtVec(k)
	}
	return out
}
