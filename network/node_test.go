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

func TestNodePotentialAndGround(t *testing.T) {
	n := NewNode(0, "A")
	n.SetPotential(3.5)
	assert.Equal(t, 3.5, n.Potential())

	g := NewGroundNode(1)
	assert.True(t, g.IsGround())
	g.SetPotential(42)
	assert.Equal(t, 0.0, g.Potential(), "writing to the ground node must have no effect")
}

func TestNodeFlowAccumulation(t *testing.T) {
	n := NewNode(0, "A")
	require.NoError(t, n.CollectInflux(3))
	require.NoError(t, n.CollectInflux(2))
	require.NoError(t, n.CollectOutflux(1))

	n.IntegrateFlows(0.1)
	assert.Equal(t, 5.0, n.Inflow())
	assert.Equal(t, 1.0, n.Outflow())
	assert.Equal(t, 4.0, n.NetFlow())
	assert.Equal(t, 1.0, n.FlowThrough())

	n.ResetFlows()
	assert.Equal(t, 0.0, n.Inflow())
	assert.Equal(t, 0.0, n.Outflow())
	assert.Equal(t, 0.0, n.ScheduledOutflux())
}

func TestNodeRejectsNonFiniteFlow(t *testing.T) {
	n := NewNode(0, "A")
	err := n.CollectInflux(-1)
	assert.Error(t, err, "flow accumulators are magnitudes only, negative is invalid")

	var overflowErr *NumericOverflowError
	err = n.CollectOutflux(negInf())
	require.Error(t, err)
	assert.ErrorAs(t, err, &overflowErr)
}

func negInf() float64 {
	var zero float64
	return -1 / zero
}

func TestNodeScheduleOutflux(t *testing.T) {
	n := NewNode(0, "A")
	require.NoError(t, n.ScheduleOutflux(2.5))
	assert.Equal(t, 2.5, n.ScheduledOutflux())
	n.ResetFlows()
	assert.Equal(t, 0.0, n.ScheduledOutflux())
}

func TestNodeCapacitanceRequestLifecycle(t *testing.T) {
	n := NewNode(0, "A")
	assert.Equal(t, 0.0, n.NetworkCapacitanceRequest())

	n.SetNetworkCapacitanceRequest(1.0)
	assert.Equal(t, 1.0, n.NetworkCapacitanceRequest())

	// Negative or zero requests are rejected; the pending request is unchanged.
	n.SetNetworkCapacitanceRequest(-1.0)
	assert.Equal(t, 1.0, n.NetworkCapacitanceRequest())

	n.consumeCapacitanceRequest()
	assert.Equal(t, 0.0, n.NetworkCapacitanceRequest())
}

func TestNodeIslandVector(t *testing.T) {
	n := NewNode(0, "A")
	assert.Nil(t, n.GetIslandVector())
	n.SetIslandVector([]int{0, 1, 2})
	assert.Equal(t, []int{0, 1, 2}, n.GetIslandVector())
}
