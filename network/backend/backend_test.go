// Copyright 2019 United States Government as represented by the Administrator of
// the National Aeronautics and Space Administration. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package backend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wellConditioned returns a small, strictly diagonally dominant symmetric
// PSD matrix every backend variant must agree on.
func wellConditioned() (a []float64, n int, b []float64) {
	n = 3
	a = []float64{
		4, 1, 0,
		1, 3, 1,
		0, 1, 2,
	}
	b = []float64{1, 2, 3}
	return
}

func TestCholeskySolvesSymmetricPD(t *testing.T) {
	a, n, b := wellConditioned()
	be := NewCholesky()
	require.Equal(t, OK, be.Decompose(a, n))
	require.False(t, be.IsSingular())

	x := make([]float64, n)
	be.Solve(x, b)

	resid := residual(a, n, x, b)
	assert.Less(t, resid, 1e-9)
}

func TestLUSolvesSymmetricPD(t *testing.T) {
	a, n, b := wellConditioned()
	be := NewLU()
	require.Equal(t, OK, be.Decompose(a, n))

	x := make([]float64, n)
	be.Solve(x, b)

	resid := residual(a, n, x, b)
	assert.Less(t, resid, 1e-9)
}

func TestSparseSolvesSymmetricPD(t *testing.T) {
	a, n, b := wellConditioned()
	be := NewSparse()
	require.Equal(t, OK, be.Decompose(a, n))

	x := make([]float64, n)
	be.Solve(x, b)

	resid := residual(a, n, x, b)
	assert.Less(t, resid, 1e-6, "CG converges to a looser tolerance than the direct dense backends")
}

func TestBackendEquivalence(t *testing.T) {
	a, n, b := wellConditioned()

	var xChol, xLU, xSparse [3]float64
	cholB := NewCholesky()
	cholB.Decompose(append([]float64(nil), a...), n)
	cholB.Solve(xChol[:], b)

	luB := NewLU()
	luB.Decompose(append([]float64(nil), a...), n)
	luB.Solve(xLU[:], b)

	sparseB := NewSparse()
	sparseB.Decompose(append([]float64(nil), a...), n)
	sparseB.Solve(xSparse[:], b)

	for i := 0; i < n; i++ {
		assert.InDelta(t, xChol[i], xLU[i], 1e-9)
		assert.InDelta(t, xChol[i], xSparse[i], 1e-6)
	}
}

func TestCholeskyDetectsSingular(t *testing.T) {
	n := 2
	a := []float64{0, 0, 0, 0}
	be := NewCholesky()
	assert.Equal(t, Singular, be.Decompose(a, n))
	assert.True(t, be.IsSingular())
}

func TestCholeskyInverseDiagonalMatchesNaiveInverse(t *testing.T) {
	// A 2x2 diagonal matrix's inverse diagonal is just 1/A[i][i].
	a := []float64{2, 0, 0, 4}
	be := NewCholesky()
	require.Equal(t, OK, be.Decompose(a, 2))

	assert.InDelta(t, 0.5, be.InverseDiagonal(0), 1e-12)
	assert.InDelta(t, 0.25, be.InverseDiagonal(1), 1e-12)

	col := be.InverseColumn(0)
	assert.InDelta(t, 0.5, col[0], 1e-12)
	assert.InDelta(t, 0, col[1], 1e-12)
}

func TestSelectPrefersCholeskyWhenCapacitanceRequested(t *testing.T) {
	kind := Select(1000, GpuDense, 10, 10, 10, true)
	assert.Equal(t, CPUCholesky, kind)
}

func TestSelectDispatchesByThreshold(t *testing.T) {
	assert.Equal(t, CPUCholesky, Select(5, GpuNone, 100, 100, 32, false))
	assert.Equal(t, CPUSparse, Select(50, GpuNone, 100, 100, 32, false))
	assert.Equal(t, GPUDense, Select(200, GpuDense, 100, 500, 32, false))
	assert.Equal(t, GPUSparse, Select(600, GpuSparse, 100, 500, 32, false))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "CPU_CHOLESKY", CPUCholesky.String())
	assert.Equal(t, "CPU_LU", CPULU.String())
	assert.Equal(t, "CPU_SPARSE", CPUSparse.String())
	assert.Equal(t, "GPU_DENSE", GPUDense.String())
	assert.Equal(t, "GPU_SPARSE", GPUSparse.String())
}

func TestGpuVariantsDelegateToCpuKernels(t *testing.T) {
	a, n, b := wellConditioned()

	dense := NewGPUDense()
	require.Equal(t, OK, dense.Decompose(append([]float64(nil), a...), n))
	xDense := make([]float64, n)
	dense.Solve(xDense, b)
	assert.Less(t, residual(a, n, xDense, b), 1e-9)
	assert.Equal(t, GPUDense, dense.Kind())

	sparse := NewGPUSparse()
	require.Equal(t, OK, sparse.Decompose(append([]float64(nil), a...), n))
	xSparse := make([]float64, n)
	sparse.Solve(xSparse, b)
	assert.Less(t, residual(a, n, xSparse, b), 1e-6)
	assert.Equal(t, GPUSparse, sparse.Kind())
}

func residual(a []float64, n int, x, b []float64) float64 {
	var maxr float64
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < n; j++ {
			sum += a[i*n+j] * x[j]
		}
		r := math.Abs(sum - b[i])
		if r > maxr {
			maxr = r
		}
	}
	return maxr
}
