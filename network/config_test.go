// Copyright 2019 United States Government as represented by the Administrator of
// the National Aeronautics and Space Administration. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestConfigValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative tolerance", func(c *Config) { c.ConvergenceTol = -1 }},
		{"negative rel tolerance", func(c *Config) { c.ConvergenceRelTol = -1 }},
		{"negative min linearization", func(c *Config) { c.MinLinearization = -1 }},
		{"zero minor step limit", func(c *Config) { c.MinorStepLimit = 0 }},
		{"zero decomposition limit", func(c *Config) { c.DecompositionLimit = 0 }},
		{"unknown island mode", func(c *Config) { c.IslandMode = IslandMode(99) }},
		{"unknown gpu mode", func(c *Config) { c.GpuMode = GpuMode(99) }},
		{"negative gpu threshold", func(c *Config) { c.GpuThreshold = -1 }},
		{"negative gpu sparse threshold", func(c *Config) { c.GpuSparseThreshold = -1 }},
		{"negative sparse threshold", func(c *Config) { c.SparseThreshold = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var invalid *InvalidConfigError
			assert.ErrorAs(t, err, &invalid)
		})
	}
}

func TestIslandModeString(t *testing.T) {
	assert.Equal(t, "OFF", IslandOff.String())
	assert.Equal(t, "SOLVE", IslandSolve.String())
	assert.Equal(t, "SOLVE_AND_EXPOSE", IslandSolveAndExpose.String())
}

func TestGpuModeString(t *testing.T) {
	assert.Equal(t, "NONE", GpuNone.String())
	assert.Equal(t, "DENSE", GpuDense.String())
	assert.Equal(t, "SPARSE", GpuSparse.String())
}
