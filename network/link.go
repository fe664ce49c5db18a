// Copyright 2019 United States Government as represented by the Administrator of
// the National Aeronautics and Space Administration. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package network

import "math"

// ConfirmOutcome is the result of a link's ConfirmSolutionAcceptable hook,
// the protocol non-linear links use to drive the minor-step loop.
type ConfirmOutcome int

const (
	// Confirmed means the link is satisfied with the current solution.
	Confirmed ConfirmOutcome = iota
	// Rejected means the link demands another minor step with new stamps.
	Rejected
	// Delayed means the link is not ready to decide; try again without
	// re-decomposing.
	Delayed
)

func (o ConfirmOutcome) String() string {
	switch o {
	case Confirmed:
		return "CONFIRMED"
	case Rejected:
		return "REJECTED"
	case Delayed:
		return "DELAYED"
	default:
		return "UNKNOWN"
	}
}

// Link is the polymorphic contract every network element satisfies. A Link
// is incident on exactly two ports, each bound to a node index; the core
// borrows node references by index, never by ownership, so the naturally
// cyclic node/link graph carries no owning back-pointers.
type Link interface {
	// Name returns the link's borrowed display name.
	Name() string

	// Initialize binds ports to nodes, applies port-specific rules, and sets
	// the initialization flag on success. portNodes[i] is the node index for
	// port i. Fails with a *BadPortAssignmentError.
	Initialize(nodes []*Node, portNodes [2]int) error

	// Step updates internal state that depends only on prior-major-step
	// potentials and on dt, and produces this major step's initial stamps.
	Step(dt float64)

	// MinorStep is called once per minor step; non-linear links re-stamp here,
	// linearizing about the most recently solved potentials.
	MinorStep(dt float64, minorStepIndex int)

	// ConfirmSolutionAcceptable is the non-linearity hook described above.
	ConfirmSolutionAcceptable(minorStepIndex, majorStepIndex int) ConfirmOutcome

	// NeedsAdmittanceUpdate reports whether the admittance stamp changed
	// since the last time it was read, so the Solver can decide whether to
	// re-decompose or reuse the cached decomposition.
	NeedsAdmittanceUpdate() bool

	// AcknowledgeAdmittanceRead clears the dirty flag NeedsAdmittanceUpdate
	// reports, once the Solver has incorporated the current stamp into its
	// incremental assembly.
	AcknowledgeAdmittanceRead()

	// ComputeFlows computes potential drop, flux and power from the just
	// solved potentials.
	ComputeFlows(dt float64)

	// TransportFlows deposits inflow/outflow on the link's incident nodes.
	// Positive flux is port 0 -> port 1.
	TransportFlows(dt float64)

	// Restart rehydrates derived state after a checkpoint load.
	Restart()

	// SetPort dynamically rewires a port, subject to port rules. On
	// rejection the prior assignment is left untouched.
	SetPort(portIndex, nodeIndex int) error

	// CheckSpecificPortRules is the link-specific port validation hook,
	// consulted both at Initialize and at SetPort.
	CheckSpecificPortRules(portIndex, nodeIndex int, nodes []*Node) error

	// Admittance returns the link's current symmetric 2x2 admittance stamp
	// as [G00, G01, G10, G11].
	Admittance() [4]float64

	// Source returns the link's current 2-vector source stamp.
	Source() [2]float64

	// Ports returns the current port -> node index binding.
	Ports() [2]int

	// PotentialDrop, Flux and Power return the values ComputeFlows last
	// produced.
	PotentialDrop() float64
	Flux() float64
	Power() float64
}

// LinkBase implements the bookkeeping every link needs (port->node binding,
// stamp buffers, blockage malfunction, the initialization flag) so concrete
// links embed it and only implement the physics-specific hooks.
type LinkBase struct {
	name string

	ports [2]int
	nodes []*Node

	admittance [4]float64 // [G00, G01, G10, G11]
	source     [2]float64 // [b0, b1]

	potentialDrop float64
	flux          float64
	power         float64

	// MalfBlockage is the blockage-malfunction multiplier in [0,1]; a
	// concrete link multiplies its nominal conductance by 1-MalfBlockage
	// before stamping.
	MalfBlockage float64

	initialized     bool
	admittanceDirty bool
}

// Name implements Link.
func (b *LinkBase) Name() string { return b.name }

// Ports implements Link.
func (b *LinkBase) Ports() [2]int { return b.ports }

// Admittance implements Link.
func (b *LinkBase) Admittance() [4]float64 { return b.admittance }

// Source implements Link.
func (b *LinkBase) Source() [2]float64 { return b.source }

// PotentialDrop implements Link.
func (b *LinkBase) PotentialDrop() float64 { return b.potentialDrop }

// Flux implements Link.
func (b *LinkBase) Flux() float64 { return b.flux }

// Power implements Link.
func (b *LinkBase) Power() float64 { return b.power }

// NeedsAdmittanceUpdate implements the default policy: true iff the
// admittance stamp or a port binding changed since the Solver last
// acknowledged a read. Source-stamp changes alone do not set it; they only
// require a fresh solve, not a fresh decomposition.
func (b *LinkBase) NeedsAdmittanceUpdate() bool { return b.admittanceDirty }

// AcknowledgeAdmittanceRead implements Link.
func (b *LinkBase) AcknowledgeAdmittanceRead() { b.admittanceDirty = false }

// Restart implements a no-op default; links with derived state override it.
func (b *LinkBase) Restart() {}

// Initialized reports whether Initialize has completed successfully.
func (b *LinkBase) Initialized() bool { return b.initialized }

// CheckSpecificPortRules implements the default: no constraint. Concrete
// links override this to enforce rules like "port 0 must be ground".
func (b *LinkBase) CheckSpecificPortRules(portIndex, nodeIndex int, nodes []*Node) error {
	return nil
}

// initBase performs the common part of Initialize: validates port indices
// against the node list, applies the concrete link's own rules, copies the
// port->node binding, and sets the initialization flag. self is the concrete
// link, so the rule check dispatches to its override rather than the
// embedded default.
func (b *LinkBase) initBase(self Link, name string, nodes []*Node, portNodes [2]int) error {
	b.name = name
	b.nodes = nodes
	for p, nodeIdx := range portNodes {
		if nodeIdx < 0 || nodeIdx >= len(nodes) {
			return &BadPortAssignmentError{Link: name, Port: p, NodeID: nodeIdx, Reason: "node index out of range"}
		}
		if err := self.CheckSpecificPortRules(p, nodeIdx, nodes); err != nil {
			return &BadPortAssignmentError{Link: name, Port: p, NodeID: nodeIdx, Reason: err.Error()}
		}
	}
	b.ports = portNodes
	b.initialized = true
	return nil
}

// setPortBase performs the common part of SetPort: validates against the
// concrete link's rules and only commits the new binding if they pass.
func (b *LinkBase) setPortBase(self Link, portIndex, nodeIndex int) error {
	if portIndex < 0 || portIndex > 1 {
		return &BadPortAssignmentError{Link: b.name, Port: portIndex, NodeID: nodeIndex, Reason: "port index out of range"}
	}
	if nodeIndex < 0 || nodeIndex >= len(b.nodes) {
		return &BadPortAssignmentError{Link: b.name, Port: portIndex, NodeID: nodeIndex, Reason: "node index out of range"}
	}
	if err := self.CheckSpecificPortRules(portIndex, nodeIndex, b.nodes); err != nil {
		return &BadPortAssignmentError{Link: b.name, Port: portIndex, NodeID: nodeIndex, Reason: err.Error()}
	}
	b.ports[portIndex] = nodeIndex
	b.admittanceDirty = true
	return nil
}

// stampConductance sets this link's admittance/source stamp to a pure
// conductor of admittance g (subject to the blockage malfunction) with no
// source term. A zero or non-finite g stamps the zero block.
func (b *LinkBase) stampConductance(g float64) {
	geff := effectiveConductance(g, b.MalfBlockage)
	b.setStamp([4]float64{geff, -geff, -geff, geff}, [2]float64{0, 0})
}

// stampPotentialSource sets this link's stamp to a potential source V behind
// an internal conductance g: conductance g on both diagonals and
// off-diagonals, source -g*V, +g*V on the port-0/port-1 components of b.
func (b *LinkBase) stampPotentialSource(g, v float64) {
	geff := effectiveConductance(g, b.MalfBlockage)
	b.setStamp([4]float64{geff, -geff, -geff, geff}, [2]float64{-geff * v, geff * v})
}

// setStamp commits an admittance/source pair, replacing a malformed stamp
// (non-finite entry, negative diagonal, asymmetric off-diagonals) with the
// zero stamp. Only an admittance change marks the stamp dirty.
func (b *LinkBase) setStamp(a [4]float64, s [2]float64) {
	if !validAdmittanceStamp(a) || !finiteSourceStamp(s) {
		a = [4]float64{}
		s = [2]float64{}
	}
	if a != b.admittance {
		b.admittanceDirty = true
	}
	b.admittance = a
	b.source = s
}

func effectiveConductance(g, blockage float64) float64 {
	if blockage < 0 {
		blockage = 0
	}
	if blockage > 1 {
		blockage = 1
	}
	geff := g * (1.0 - blockage)
	if geff < 0 || math.IsNaN(geff) || math.IsInf(geff, 0) {
		return 0
	}
	return geff
}

func validAdmittanceStamp(a [4]float64) bool {
	for _, v := range a {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return a[0] >= 0 && a[3] >= 0 && a[1] == a[2]
}

func finiteSourceStamp(s [2]float64) bool {
	return !math.IsNaN(s[0]) && !math.IsInf(s[0], 0) && !math.IsNaN(s[1]) && !math.IsInf(s[1], 0)
}
