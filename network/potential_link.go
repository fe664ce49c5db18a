// Copyright 2019 United States Government as represented by the Administrator of
// the National Aeronautics and Space Administration. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package network

// PotentialLink is a two-port potential source: a fixed potential rise V
// behind an internal conductance G. It stamps conductance G on both
// diagonals and off-diagonals, with source terms -G*V on port 0 and +G*V on
// port 1.
type PotentialLink struct {
	ConductorLink

	// SourcePotential is the potential rise V this link drives between its
	// ports.
	SourcePotential float64
}

// NewPotentialLink allocates an uninitialized potential-source link of
// internal conductance g and source potential v.
func NewPotentialLink(g, v float64) *PotentialLink {
	return &PotentialLink{
		ConductorLink:   ConductorLink{Conductance: g},
		SourcePotential: v,
	}
}

// Step implements Link: stamps conductance G with source terms driven by V.
func (p *PotentialLink) Step(dt float64) {
	p.stampPotentialSource(p.Conductance, p.SourcePotential)
}

// ComputeFlows implements Link. The potential source is an ideal rise V
// behind internal conductance G; the current it drives from port 0 to port 1
// is what's left of V after the external circuit's own drop is subtracted
// across that same conductance: flux = G*(V + (p0-p1)). Power is the power
// dissipated in the internal conductance itself (flux^2/G), which collapses
// to potentialDrop*flux for a plain conductor but correctly differs here
// since part of potentialDrop is supplied by the source rather than by flux
// alone.
func (p *PotentialLink) ComputeFlows(dt float64) {
	p0 := p.nodePotential(0)
	p1 := p.nodePotential(1)
	p.potentialDrop = p0 - p1
	geff := effectiveConductance(p.Conductance, p.MalfBlockage)
	p.flux = geff * (p.SourcePotential + p.potentialDrop)
	p.power = dissipatedPower(p.flux, geff)
}
