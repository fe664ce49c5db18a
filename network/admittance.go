// Copyright 2019 United States Government as represented by the Administrator of
// the National Aeronautics and Space Administration. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package network

// AdmittanceSystem is the triple (A, b, x): A dense symmetric PSD of order
// N-1 (one row per non-ground node), b and x N-1-vectors. A is assembled by
// summing link stamps and node capacitance C/dt diagonal terms; x is written
// back to nodes once solved.
//
// The ground node (index N-1) owns no row: any stamp contribution touching
// it is simply dropped from A/b. Stamping into the ground row/column can
// therefore never perturb the solve — there is no ground row to touch.
type AdmittanceSystem struct {
	n int       // order = number of non-ground nodes
	a []float64 // row-major n x n
	b []float64
	x []float64
}

// NewAdmittanceSystem allocates a system of order n.
func NewAdmittanceSystem(n int) *AdmittanceSystem {
	return &AdmittanceSystem{
		n: n,
		a: make([]float64, n*n),
		b: make([]float64, n),
		x: make([]float64, n),
	}
}

// Reset zeroes A and b for a fresh assembly; x is left as the last solution.
func (s *AdmittanceSystem) Reset() {
	for i := range s.a {
		s.a[i] = 0
	}
	for i := range s.b {
		s.b[i] = 0
	}
}

// Order returns N-1.
func (s *AdmittanceSystem) Order() int { return s.n }

// A returns the row-major backing array, order Order()xOrder().
func (s *AdmittanceSystem) A() []float64 { return s.a }

// B returns the source vector, length Order().
func (s *AdmittanceSystem) B() []float64 { return s.b }

// X returns the last-solved potential vector, length Order().
func (s *AdmittanceSystem) X() []float64 { return s.x }

func (s *AdmittanceSystem) at(i, j int) float64 { return s.a[i*s.n+j] }
func (s *AdmittanceSystem) add(i, j int, v float64) {
	s.a[i*s.n+j] += v
}

// AddLinkStamp sums a link's 2x2 admittance block and 2-vector source into
// A/b at the node indices its ports are bound to. groundIndex is the
// reserved boundary node; any port bound to it contributes nothing to A/b on
// that side. The assembly is additive, so summing a stamp's negation removes
// a previously summed contribution.
func (s *AdmittanceSystem) AddLinkStamp(ports [2]int, admittance [4]float64, source [2]float64, groundIndex int) {
	p0, p1 := ports[0], ports[1]
	g00, g01, g10, g11 := admittance[0], admittance[1], admittance[2], admittance[3]
	b0, b1 := source[0], source[1]

	if p0 != groundIndex {
		s.add(p0, p0, g00)
		s.b[p0] += b0
		if p1 != groundIndex {
			s.add(p0, p1, g01)
		}
	}
	if p1 != groundIndex {
		s.add(p1, p1, g11)
		s.b[p1] += b1
		if p0 != groundIndex {
			s.add(p1, p0, g10)
		}
	}
}

// AddCapacitance sums a capacitance contribution onto a node's own diagonal
// (dA, typically C/dt) and its source term (dB, typically C/dt times the
// prior potential). Negative deltas remove a previously summed contribution.
func (s *AdmittanceSystem) AddCapacitance(nodeIndex int, dA, dB float64) {
	s.add(nodeIndex, nodeIndex, dA)
	s.b[nodeIndex] += dB
}

// SetX records the solved potential vector.
func (s *AdmittanceSystem) SetX(x []float64) {
	copy(s.x, x)
}

// SubVector extracts b restricted to the given sorted global node indices,
// cheaper than SubMatrix when A itself hasn't changed since the last
// decomposition and only a fresh b needs solving.
func (s *AdmittanceSystem) SubVector(indices []int) []float64 {
	out := make([]float64, len(indices))
	for i, gi := range indices {
		out[i] = s.b[gi]
	}
	return out
}

// SubMatrix extracts the dense A/b restricted to the given sorted global
// node indices, for an island's independent solve. Returns the submatrix
// row-major and the sub-vector b.
func (s *AdmittanceSystem) SubMatrix(indices []int) (sub []float64, subB []float64) {
	m := len(indices)
	sub = make([]float64, m*m)
	subB = make([]float64, m)
	for i, gi := range indices {
		subB[i] = s.b[gi]
		for j, gj := range indices {
			sub[i*m+j] = s.at(gi, gj)
		}
	}
	return sub, subB
}
