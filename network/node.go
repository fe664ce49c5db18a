// Copyright 2019 United States Government as represented by the Administrator of
// the National Aeronautics and Space Administration. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package network

import "math"

// Node is a point in the network holding a scalar potential (voltage,
// pressure, temperature, ...), the flow accumulators links deposit into
// during TransportFlows, and the optional network-capacitance probe. It is a
// plain data holder the Solver owns outright; links borrow it by index only.
//
// Derived node variants (a fluid node tracking composition and temperature,
// say) build on top of this struct; the solver core only ever assumes what
// this type documents.
type Node struct {
	index int
	name  string
	// ground marks the reserved N-1 boundary node: potential is pinned at
	// zero and it owns no row in the admittance system.
	ground bool

	potential float64

	inflow      float64
	outflow     float64
	netFlow     float64
	flowThrough float64

	scheduledOutflux float64

	// ownCapacitance is the node's own physical capacitance to ground (e.g. a
	// fluid volume or thermal mass), the input the Solver sums as a C/dt term
	// on this node's admittance diagonal. This is distinct from the
	// network-capacitance probe below, which is a computed diagnostic output.
	ownCapacitance float64

	capacitance        float64
	capacitanceRequest float64
	capacitanceDeltaP  []float64

	island []int
}

// NewNode allocates a Node at the given arena index with a borrowed name.
func NewNode(index int, name string) *Node {
	return &Node{index: index, name: name}
}

// NewGroundNode allocates the reserved zero-potential boundary node.
func NewGroundNode(index int) *Node {
	return &Node{index: index, name: "ground", ground: true}
}

// Index returns this node's position in the arena, [0, N).
func (n *Node) Index() int { return n.index }

// Name returns the node's borrowed display name.
func (n *Node) Name() string { return n.name }

// IsGround reports whether this is the reserved boundary node.
func (n *Node) IsGround() bool { return n.ground }

// Potential returns the node's current potential.
func (n *Node) Potential() float64 { return n.potential }

// SetPotential mutates the node's potential. Reserved for the Solver; writing
// to the ground node has no effect.
func (n *Node) SetPotential(p float64) {
	if n.ground {
		return
	}
	n.potential = p
}

// CollectInflux additively accumulates an inflow. f must be finite and
// non-negative: the accumulators hold magnitudes only, direction is implied
// by which method the caller picked.
func (n *Node) CollectInflux(f float64) error {
	if !validFlow(f) {
		return &NumericOverflowError{Link: n.name, Field: "influx"}
	}
	n.inflow += f
	return nil
}

// CollectOutflux additively accumulates an outflow. See CollectInflux for the
// sign convention.
func (n *Node) CollectOutflux(f float64) error {
	if !validFlow(f) {
		return &NumericOverflowError{Link: n.name, Field: "outflux"}
	}
	n.outflow += f
	return nil
}

// ScheduleOutflux is a pre-commit reservation: overflow-aware links use it to
// see how much flow is already being pulled out of this node before they
// compute their own contribution, within the same minor step.
func (n *Node) ScheduleOutflux(f float64) error {
	if !validFlow(f) {
		return &NumericOverflowError{Link: n.name, Field: "scheduledOutflux"}
	}
	n.scheduledOutflux += f
	return nil
}

// ScheduledOutflux returns the current pre-commit outflux reservation.
func (n *Node) ScheduledOutflux() float64 { return n.scheduledOutflux }

// IntegrateFlows computes netFlow and flowThrough from the accumulated influx
// and outflux. Node variants that derive state from flow (stored mass in a
// fluid node, say) do additional work here; the base Node only does the
// accumulator bookkeeping.
func (n *Node) IntegrateFlows(dt float64) {
	n.netFlow = n.inflow - n.outflow
	n.flowThrough = math.Min(n.inflow, n.outflow)
}

// ResetFlows zeroes all flow accumulators, including the scheduled-outflux
// reservation. Called once per major step before link flow transport.
func (n *Node) ResetFlows() {
	n.inflow = 0
	n.outflow = 0
	n.netFlow = 0
	n.flowThrough = 0
	n.scheduledOutflux = 0
}

// Inflow, Outflow, NetFlow and FlowThrough report the current accumulators.
func (n *Node) Inflow() float64      { return n.inflow }
func (n *Node) Outflow() float64     { return n.outflow }
func (n *Node) NetFlow() float64     { return n.netFlow }
func (n *Node) FlowThrough() float64 { return n.flowThrough }

// SetCapacitance sets the node's own physical capacitance to ground. The
// Solver adds c/dt to this node's admittance diagonal and c/dt*p_prev to its
// source term each major step, the backward-Euler discretization of a
// capacitor. Negative values are ignored.
func (n *Node) SetCapacitance(c float64) {
	if c >= 0 {
		n.ownCapacitance = c
	}
}

// Capacitance returns the node's own physical capacitance to ground.
func (n *Node) Capacitance() float64 { return n.ownCapacitance }

// SetNetworkCapacitanceRequest asks the Solver to compute this node's
// effective capacitance on the next decomposition. f must be > 0; the request
// is consumed (reset to zero) once the Solver services it.
func (n *Node) SetNetworkCapacitanceRequest(f float64) {
	if f > 0 {
		n.capacitanceRequest = f
	}
}

// NetworkCapacitanceRequest returns the pending request flux, or 0 if none.
func (n *Node) NetworkCapacitanceRequest() float64 { return n.capacitanceRequest }

// consumeCapacitanceRequest is called by the Solver once the request has been
// serviced by a Cholesky decomposition.
func (n *Node) consumeCapacitanceRequest() { n.capacitanceRequest = 0 }

// SetNetworkCapacitance records the node's computed response to a unit
// additional flux.
func (n *Node) SetNetworkCapacitance(c float64) { n.capacitance = c }

// NetworkCapacitance returns the node's potential response to a unit flux
// injected at that node, as last computed by the Solver.
func (n *Node) NetworkCapacitance() float64 { return n.capacitance }

// SetNetCapDeltaPotential records the full response vector (delta-potential
// at every non-ground node) for a unit flux injected here.
func (n *Node) SetNetCapDeltaPotential(v []float64) { n.capacitanceDeltaP = v }

// NetCapDeltaPotential returns the last recorded response vector, or nil.
func (n *Node) NetCapDeltaPotential() []float64 { return n.capacitanceDeltaP }

// SetIslandVector publishes the sorted node-index list of the island this
// node currently belongs to. The Solver only populates it under
// IslandSolveAndExpose.
func (n *Node) SetIslandVector(island []int) { n.island = island }

// GetIslandVector returns the island node list the node currently belongs to,
// or nil unless the island mode is IslandSolveAndExpose.
func (n *Node) GetIslandVector() []int { return n.island }

func validFlow(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}
