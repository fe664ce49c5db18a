// Copyright 2019 United States Government as represented by the Administrator of
// the National Aeronautics and Space Administration. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package backend

// GPUDenseBackend and GPUSparseBackend are software delegates: they report
// the GPU Kind, so threshold-driven selection, diagnostics, and logging all
// behave as if a device path were taken, but they factor and solve with the
// same dense/iterative kernels as their CPU counterparts. No pure-Go CUDA
// linear-solver exists to back them with; a future device backend replaces
// the embedded kernel without touching the selection policy.

// GPUDenseBackend delegates to CholeskyBackend.
type GPUDenseBackend struct {
	CholeskyBackend
}

// NewGPUDense allocates a GPU_DENSE backend.
func NewGPUDense() *GPUDenseBackend { return &GPUDenseBackend{} }

func (b *GPUDenseBackend) Kind() Kind { return GPUDense }

// GPUSparseBackend delegates to SparseBackend.
type GPUSparseBackend struct {
	SparseBackend
}

// NewGPUSparse allocates a GPU_SPARSE backend.
func NewGPUSparse() *GPUSparseBackend { return &GPUSparseBackend{} }

func (b *GPUSparseBackend) Kind() Kind { return GPUSparse }
