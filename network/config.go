// Copyright 2019 United States Government as represented by the Administrator of
// the National Aeronautics and Space Administration. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package network

// IslandMode selects how the Islander partitions the node graph before solving.
type IslandMode int

const (
	// IslandOff treats the whole non-ground node set as a single island.
	IslandOff IslandMode = iota
	// IslandSolve partitions the graph and solves each island independently.
	IslandSolve
	// IslandSolveAndExpose also publishes each island's node-index vector onto
	// the nodes it contains, so links can introspect it.
	IslandSolveAndExpose
)

func (m IslandMode) String() string {
	switch m {
	case IslandOff:
		return "OFF"
	case IslandSolve:
		return "SOLVE"
	case IslandSolveAndExpose:
		return "SOLVE_AND_EXPOSE"
	default:
		return "UNKNOWN"
	}
}

// GpuMode selects whether islands above their respective thresholds are
// dispatched to a GPU-flavored backend variant.
type GpuMode int

const (
	GpuNone GpuMode = iota
	GpuDense
	GpuSparse
)

func (m GpuMode) String() string {
	switch m {
	case GpuNone:
		return "NONE"
	case GpuDense:
		return "DENSE"
	case GpuSparse:
		return "SPARSE"
	default:
		return "UNKNOWN"
	}
}

// Config holds the Solver's recognized options. It is a plain, JSON-tagged
// struct: defaults live in DefaultConfig and cross-field validation in
// Validate. The solver is an embedded library with no file format of its
// own; loading this struct from a file or environment is the host's job.
type Config struct {
	// ConvergenceTol is the absolute potential tolerance per node (ε_abs in the
	// minor-step convergence check).
	ConvergenceTol float64 `json:"convergenceTol"`

	// ConvergenceRelTol is the relative potential tolerance per node (ε_rel).
	// DefaultConfig sets it to 1e-9; at 0 (the zero value) ConvergenceTol
	// alone gives a pure absolute-tolerance check.
	ConvergenceRelTol float64 `json:"convergenceRelTol"`

	// MinLinearization is a small-value floor applied to admittance diagonals
	// before decomposition, to avoid singularities from islands with
	// degenerate or zero conductance.
	MinLinearization float64 `json:"minLinearization"`

	// MinorStepLimit caps minor steps per major step before MINOR_LIMIT.
	MinorStepLimit int `json:"minorStepLimit"`

	// DecompositionLimit caps decompositions per major step before DECOMP_LIMIT.
	DecompositionLimit int `json:"decompositionLimit"`

	// IslandMode selects islanding behavior.
	IslandMode IslandMode `json:"islandMode"`

	// GpuMode selects whether large islands dispatch to a GPU-flavored backend.
	GpuMode GpuMode `json:"gpuMode"`

	// GpuThreshold is the minimum dense-island size that uses the GPU dense
	// backend when GpuMode is GpuDense.
	GpuThreshold int `json:"gpuThreshold"`

	// GpuSparseThreshold is the minimum island size that uses the GPU sparse
	// backend when GpuMode is GpuSparse.
	GpuSparseThreshold int `json:"gpuSparseThreshold"`

	// SparseThreshold is the minimum island size at which the CPU sparse
	// backend is preferred over dense Cholesky/LU, absent a GPU dispatch.
	SparseThreshold int `json:"sparseThreshold"`

	// WorstCaseTiming forces a re-decomposition every major step regardless of
	// admittance change, for benchmarking and hard-real-time budgeting.
	WorstCaseTiming bool `json:"worstCaseTiming"`
}

// DefaultConfig returns a Config with conservative defaults:
// Cholesky-favoring, no islanding, no GPU dispatch.
func DefaultConfig() Config {
	return Config{
		ConvergenceTol:     1.0e-6,
		ConvergenceRelTol:  1.0e-9,
		MinLinearization:   1.0e-12,
		MinorStepLimit:     10,
		DecompositionLimit: 10,
		IslandMode:         IslandOff,
		GpuMode:            GpuNone,
		GpuThreshold:       64,
		GpuSparseThreshold: 256,
		SparseThreshold:    32,
		WorstCaseTiming:    false,
	}
}

// Validate checks the cross-field invariants at initialize time: convergence
// tolerances are non-negative, limits are at least 1, and mode flags are one
// of the recognized values. The time step is checked separately, per Step
// call, since it is not part of Config.
func (c Config) Validate() error {
	if c.ConvergenceTol < 0 {
		return &InvalidConfigError{Field: "ConvergenceTol", Reason: "must be >= 0"}
	}
	if c.ConvergenceRelTol < 0 {
		return &InvalidConfigError{Field: "ConvergenceRelTol", Reason: "must be >= 0"}
	}
	if c.MinLinearization < 0 {
		return &InvalidConfigError{Field: "MinLinearization", Reason: "must be >= 0"}
	}
	if c.MinorStepLimit < 1 {
		return &InvalidConfigError{Field: "MinorStepLimit", Reason: "must be >= 1"}
	}
	if c.DecompositionLimit < 1 {
		return &InvalidConfigError{Field: "DecompositionLimit", Reason: "must be >= 1"}
	}
	switch c.IslandMode {
	case IslandOff, IslandSolve, IslandSolveAndExpose:
	default:
		return &InvalidConfigError{Field: "IslandMode", Reason: "unrecognized mode"}
	}
	switch c.GpuMode {
	case GpuNone, GpuDense, GpuSparse:
	default:
		return &InvalidConfigError{Field: "GpuMode", Reason: "unrecognized mode"}
	}
	if c.GpuThreshold < 0 {
		return &InvalidConfigError{Field: "GpuThreshold", Reason: "must be >= 0"}
	}
	if c.GpuSparseThreshold < 0 {
		return &InvalidConfigError{Field: "GpuSparseThreshold", Reason: "must be >= 0"}
	}
	if c.SparseThreshold < 0 {
		return &InvalidConfigError{Field: "SparseThreshold", Reason: "must be >= 0"}
	}
	return nil
}
