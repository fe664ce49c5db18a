// Copyright 2019 United States Government as represented by the Administrator of
// the National Aeronautics and Space Administration. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package network

import (
	"errors"
	"math"
)

// demandEpsilon is the snap-to-zero threshold for the demand moving average
// (DBL_EPSILON), below which dirty non-zero noise would otherwise never
// settle.
const demandEpsilon = 2.220446049250313e-16

// DemandLink is a potential-source link whose effective conductance is not
// fixed but filtered toward an estimate of the capacitance behind an
// external, only-loosely-synchronized supply network. The filter keeps the
// coupling between two separately-solved networks stable despite up to one
// frame of staleness in the values carried across the bridge.
//
// The supply side of the bridge is not modeled here; the host shell that
// carries values between networks is an external collaborator.
// SupplyPotential is instead set directly by the caller once per major step,
// standing in for what would arrive over a sim bus.
type DemandLink struct {
	PotentialLink

	// FilterMinConductivity is the floor effective conductivity never goes
	// below, regardless of what the capacitance estimate says.
	FilterMinConductivity float64
	// FilterMinDeltaP is the minimum averaged supply delta-potential magnitude
	// below which the capacitance estimate is not updated (avoids dividing by
	// a near-zero delta).
	FilterMinDeltaP float64
	// FilterCapacitanceGain is the one-pole filter gain in [0,1] blending the
	// prior capacitance estimate with the new one each step.
	FilterCapacitanceGain float64

	// SupplyPotential is the latest potential reported by the external
	// network this link bridges to; set by the caller before Step.
	SupplyPotential float64

	avgDemand            float64
	avgSupplyP           float64
	avgSupplyDeltaP      float64
	estimatedCapacitance float64
	effectiveConductance float64
}

// NewDemandLink allocates an uninitialized demand-filter link. The floor
// conductivity, minimum delta-potential, and filter gain come from the
// physical model catalog; no network-wide default exists for them.
func NewDemandLink(filterMinConductivity, filterMinDeltaP, filterCapacitanceGain float64) *DemandLink {
	return &DemandLink{
		FilterMinConductivity: filterMinConductivity,
		FilterMinDeltaP:       filterMinDeltaP,
		FilterCapacitanceGain: filterCapacitanceGain,
		effectiveConductance:  filterMinConductivity,
	}
}

// Initialize implements Link, routing port validation through this link's
// own port rules rather than the embedded conductor's.
func (d *DemandLink) Initialize(nodes []*Node, portNodes [2]int) error {
	return d.initBase(d, d.name, nodes, portNodes)
}

// SetPort implements Link. See Initialize.
func (d *DemandLink) SetPort(portIndex, nodeIndex int) error {
	return d.setPortBase(d, portIndex, nodeIndex)
}

// CheckSpecificPortRules implements Link: the demand side of a bridge hangs
// off the network boundary, so port 0 must be the ground node and port 1
// must not be.
func (d *DemandLink) CheckSpecificPortRules(portIndex, nodeIndex int, nodes []*Node) error {
	if portIndex == 1 && nodes[nodeIndex].IsGround() {
		return errors.New("cannot assign port 1 to the boundary node")
	}
	if portIndex == 0 && !nodes[nodeIndex].IsGround() {
		return errors.New("must assign port 0 to the boundary node")
	}
	return nil
}

// Step implements Link: runs the one-step-lagged capacitance filter, then
// stamps a potential source of the filtered conductance driving the
// last-reported supply potential.
func (d *DemandLink) Step(dt float64) {
	d.updateState(dt)
	d.SourcePotential = d.SupplyPotential
	d.Conductance = d.effectiveConductance
	d.stampPotentialSource(d.Conductance, d.SourcePotential)
}

// updateState implements the moving-average capacitance-estimate filter:
//
//	avgDemand       <- 0.5*(avgDemand + flux), snapped to 0 below epsilon
//	avgSupplyP      <- 0.5*(avgSupplyP + supplyPotential)
//	avgSupplyDeltaP <- avgSupplyP - avgSupplyP_prev
//	estimatedCap    <- (1-gain)*estimatedCap + gain*(-avgDemand*dt/avgSupplyDeltaP)
//	                   only when |avgSupplyDeltaP| > filterMinDeltaP
//	effectiveG      <- max(estimatedCap/dt, filterMinConductivity)
func (d *DemandLink) updateState(dt float64) {
	d.avgDemand = 0.5 * (d.avgDemand + d.flux)
	if math.Abs(d.avgDemand) < demandEpsilon {
		d.avgDemand = 0
	}

	prevAvgSupplyP := d.avgSupplyP
	d.avgSupplyP = 0.5 * (d.avgSupplyP + d.SupplyPotential)
	d.avgSupplyDeltaP = d.avgSupplyP - prevAvgSupplyP

	if math.Abs(d.avgSupplyDeltaP) > d.FilterMinDeltaP {
		d.estimatedCapacitance = (1.0-d.FilterCapacitanceGain)*d.estimatedCapacitance +
			d.FilterCapacitanceGain*(-d.avgDemand*dt/d.avgSupplyDeltaP)
	}

	if dt > demandEpsilon {
		d.effectiveConductance = math.Max(d.estimatedCapacitance/dt, d.FilterMinConductivity)
	} else {
		d.effectiveConductance = d.FilterMinConductivity
	}
}

// DemandFlux is the link's flux as last computed, reported under the
// bridge's own name for an external collaborator to relay to the supply
// network.
func (d *DemandLink) DemandFlux() float64 { return d.flux }
