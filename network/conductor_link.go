// Copyright 2019 United States Government as represented by the Administrator of
// the National Aeronautics and Space Administration. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package network

// ConductorLink is a plain two-port conductor of admittance G, stamping a
// symmetric zero-source block scaled by the blockage malfunction. It is the
// simplest concrete realization of the Link contract and the base that
// PotentialLink and DemandLink build on.
type ConductorLink struct {
	LinkBase

	// Conductance is the nominal (unblocked) conductance of this link.
	Conductance float64
}

// NewConductorLink allocates an uninitialized conductor link.
func NewConductorLink(conductance float64) *ConductorLink {
	return &ConductorLink{Conductance: conductance}
}

// Initialize implements Link.
func (c *ConductorLink) Initialize(nodes []*Node, portNodes [2]int) error {
	return c.initBase(c, c.name, nodes, portNodes)
}

// SetName sets the link's borrowed display name; call before Initialize.
func (c *ConductorLink) SetName(name string) { c.name = name }

// Step implements Link: a plain conductor's admittance does not depend on dt
// or on prior potentials, so Step just (re)stamps the nominal conductance.
func (c *ConductorLink) Step(dt float64) {
	c.stampConductance(c.Conductance)
}

// MinorStep implements Link: a linear conductor never changes its stamp
// inside the minor-step loop.
func (c *ConductorLink) MinorStep(dt float64, minorStepIndex int) {}

// ConfirmSolutionAcceptable implements Link: a linear conductor is always
// satisfied with whatever potentials the solve produced.
func (c *ConductorLink) ConfirmSolutionAcceptable(minorStepIndex, majorStepIndex int) ConfirmOutcome {
	return Confirmed
}

// ComputeFlows implements Link: flux = G * (p0 - p1), power = dP * flux.
// Positive flux means flow from port 0 to port 1, so p0 > p1 yields a
// positive flux and non-negative power.
func (c *ConductorLink) ComputeFlows(dt float64) {
	p0 := c.nodePotential(0)
	p1 := c.nodePotential(1)
	c.potentialDrop = p0 - p1
	geff := effectiveConductance(c.Conductance, c.MalfBlockage)
	c.flux = geff * c.potentialDrop
	c.power = dissipatedPower(c.flux, geff)
}

// dissipatedPower returns the power dissipated in an internal conductance
// geff carrying flux: flux^2/geff. For a plain conductor this is identical
// to potentialDrop*flux (since flux = geff*potentialDrop); for a link with
// an internal source behind geff it correctly isolates the power dissipated
// in the conductance itself rather than the power exchanged at the external
// ports.
func dissipatedPower(flux, geff float64) float64 {
	if geff <= 0 {
		return 0
	}
	return flux * flux / geff
}

// TransportFlows implements Link: deposits the computed flux as outflow on
// port 0's node and inflow on port 1's node when flux is positive (port 0 ->
// port 1), and the reverse when negative.
func (c *ConductorLink) TransportFlows(dt float64) {
	transportSignedFlux(c.nodes, c.ports, c.flux)
}

// SetPort implements Link.
func (c *ConductorLink) SetPort(portIndex, nodeIndex int) error {
	return c.setPortBase(c, portIndex, nodeIndex)
}

func (c *ConductorLink) nodePotential(port int) float64 {
	return c.nodes[c.ports[port]].Potential()
}

// transportSignedFlux is the shared flow-transport helper every two-port
// link in this package uses: positive flux flows port 0 -> port 1.
func transportSignedFlux(nodes []*Node, ports [2]int, flux float64) {
	n0 := nodes[ports[0]]
	n1 := nodes[ports[1]]
	if flux >= 0 {
		_ = n0.CollectOutflux(flux)
		_ = n1.CollectInflux(flux)
	} else {
		_ = n0.CollectInflux(-flux)
		_ = n1.CollectOutflux(-flux)
	}
}
