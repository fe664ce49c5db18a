// Copyright 2019 United States Government as represented by the Administrator of
// the National Aeronautics and Space Administration. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package backend implements the interchangeable matrix-decomposition
// strategies the network solver dispatches islands to: dense Cholesky,
// dense LU, an iterative sparse solve, and GPU-labeled variants. Dense
// kernels are built on gonum.org/v1/gonum/mat; the iterative solve on
// gonum.org/v1/gonum/linsolve.
package backend

// Kind identifies a backend variant.
type Kind int

const (
	CPUCholesky Kind = iota
	CPULU
	CPUSparse
	GPUDense
	GPUSparse
)

func (k Kind) String() string {
	switch k {
	case CPUCholesky:
		return "CPU_CHOLESKY"
	case CPULU:
		return "CPU_LU"
	case CPUSparse:
		return "CPU_SPARSE"
	case GPUDense:
		return "GPU_DENSE"
	case GPUSparse:
		return "GPU_SPARSE"
	default:
		return "UNKNOWN"
	}
}

// SupportsCapacitance reports whether this backend variant can service a
// network-capacitance probe. Only CPU_CHOLESKY can.
func (k Kind) SupportsCapacitance() bool { return k == CPUCholesky }

// Status is the outcome of Decompose.
type Status int

const (
	OK Status = iota
	Singular
)

// Backend is the capability set every variant implements: decompose, solve,
// report singularity. A is always dense symmetric PSD of the island's order;
// Decompose must be deterministic for a given A.
type Backend interface {
	Kind() Kind
	// Decompose factors a (order n, row-major, symmetric) into internal
	// scratch sized for n. Returns Singular on a zero or negative pivot
	// instead of an error: singularity is a recoverable runtime condition,
	// not a fatal one.
	Decompose(a []float64, n int) Status
	// Solve uses the most recent decomposition to solve against an n-vector
	// b, writing the result into dst (len n). Safe to call repeatedly with
	// different b after one Decompose, which supports both the main solve
	// and the capacitance probe's per-node unit right-hand sides.
	Solve(dst, b []float64)
	// IsSingular reports whether the last Decompose detected singularity.
	IsSingular() bool
}

// New constructs the Backend implementation for kind.
func New(kind Kind) Backend {
	switch kind {
	case CPUCholesky:
		return NewCholesky()
	case CPULU:
		return NewLU()
	case CPUSparse:
		return NewSparse()
	case GPUDense:
		return NewGPUDense()
	case GPUSparse:
		return NewGPUSparse()
	default:
		return NewCholesky()
	}
}

// Select implements the per-island backend-selection policy: island size
// against tunable thresholds, with a pending capacitance request pinning the
// island to CPU_CHOLESKY regardless of size.
func Select(islandSize int, gpuMode GpuMode, gpuThreshold, gpuSparseThreshold, sparseThreshold int, capacitanceRequested bool) Kind {
	if capacitanceRequested {
		return CPUCholesky
	}
	switch gpuMode {
	case GpuSparse:
		if islandSize >= gpuSparseThreshold {
			return GPUSparse
		}
	case GpuDense:
		if islandSize >= gpuThreshold {
			return GPUDense
		}
	}
	if islandSize >= sparseThreshold {
		return CPUSparse
	}
	return CPUCholesky
}

// GpuMode mirrors the solver's GPU dispatch mode without importing the
// network package (backend must not depend upward on its caller).
type GpuMode int

const (
	GpuNone GpuMode = iota
	GpuDense
	GpuSparse
)
