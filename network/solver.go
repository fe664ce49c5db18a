// Copyright 2019 United States Government as represented by the Administrator of
// the National Aeronautics and Space Administration. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package network

import (
	"context"
	"time"

	"github.com/nasa/gunns-go/network/backend"
	"github.com/nasa/gunns-go/network/island"
)

// Solver is the network orchestrator: it owns the node list, the link list,
// the per-island matrix backends, the island partition, the minor-step loop
// (controller.go) and the MinorStepLog, and drives the major-step pipeline:
// link Step, stamp assembly, decompose when needed, solve, write potentials,
// link ComputeFlows/TransportFlows, node IntegrateFlows.
//
// A Solver is a single-threaded, in-process object: one scheduled thread
// per major step, no suspension points inside Step. Only the MinorStepLog
// may be read from another thread, through its own handshake.
type Solver struct {
	cfg         Config
	nodes       []*Node
	links       []Link
	groundIndex int

	sys *AdmittanceSystem
	log *MinorStepLog

	sink WarningSink

	majorStepIndex int
	lastOutcome    Outcome

	// Per-link assembly cache: the last stamp actually summed into sys, so
	// reassembleIncremental can subtract the stale contribution before adding
	// the fresh one instead of rebuilding A/b from scratch. The cache
	// persists across major steps; a major step whose stamps all match the
	// cache reuses the previous decomposition outright.
	lastPorts      [][2]int
	lastAdmittance [][4]float64
	lastSource     [][2]float64
	linkStamped    []bool

	// Per-node capacitance cache, same idea: the C/dt diagonal term and the
	// C/dt*p_prev source term last summed into sys.
	lastCapDiag   []float64
	lastCapSource []float64

	capacitanceApplied       bool
	majorStepStartPotentials []float64

	// Island state: the current partition, a node -> island index map
	// (-1 for degenerate nodes), one backend per island, and one dirty
	// flag per island. Only dirty islands are re-decomposed; a flag is set
	// when an admittance contribution touching the island changed and
	// cleared once the island is re-factored.
	islands         [][]int
	nodeIsland      []int
	degenerateNodes []int
	islandDirty     []bool
	islandBackends  []backend.Backend
	xBuffer         []float64

	decompositions int

	solveTime time.Duration
	stepTime  time.Duration
}

// NewSolver allocates an uninitialized Solver reporting recoverable runtime
// failures through sink (nil is accepted and treated as a no-op sink).
func NewSolver(sink WarningSink) *Solver {
	if sink == nil {
		sink = discardSink{}
	}
	return &Solver{sink: sink, log: NewMinorStepLog(64)}
}

// Initialize validates cfg, binds links and nodes (links must already have
// had their own Initialize called against nodes), stamps initial
// admittances, and triggers a first decomposition so the network is ready
// before the first Step call.
//
// Every concrete link in this package stamps a dt-independent admittance
// (ConductorLink, PotentialLink) or guards dt==0 explicitly (DemandLink), so
// calling Step(0) here is safe and is how the initial stamps are produced
// without inventing a fictitious initial dt.
func (s *Solver) Initialize(cfg Config, links []Link, nodes []*Node) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if len(nodes) < 1 {
		return &InvalidConfigError{Field: "nodes", Reason: "network must contain at least the ground node"}
	}
	if !nodes[len(nodes)-1].IsGround() {
		return &InvalidConfigError{Field: "nodes", Reason: "last node must be the reserved ground node"}
	}

	s.cfg = cfg
	s.nodes = nodes
	s.links = links
	s.groundIndex = len(nodes) - 1

	order := s.groundIndex
	s.sys = NewAdmittanceSystem(order)
	s.xBuffer = make([]float64, order)
	s.majorStepStartPotentials = make([]float64, order)

	s.lastPorts = make([][2]int, len(links))
	s.lastAdmittance = make([][4]float64, len(links))
	s.lastSource = make([][2]float64, len(links))
	s.linkStamped = make([]bool, len(links))
	s.lastCapDiag = make([]float64, order)
	s.lastCapSource = make([]float64, order)

	if s.log == nil {
		s.log = NewMinorStepLog(64)
	}
	if s.sink == nil {
		s.sink = discardSink{}
	}
	s.capacitanceApplied = false
	s.islands = nil
	s.nodeIsland = nil
	s.islandDirty = nil
	s.islandBackends = nil

	for _, l := range s.links {
		l.Step(0)
	}
	s.rebuildIslandsIfNeeded()
	s.reassembleIncremental()
	s.applyCapacitance(0)
	s.decomposeIslands()
	s.solveIslands()
	s.writePotentials()

	return nil
}

// Step runs one major step of dt seconds. It always completes: runtime
// numerical failures are recovered internally and surfaced only through the
// MinorStepLog and the warning sink.
func (s *Solver) Step(dt float64) error {
	return s.StepContext(context.Background(), dt)
}

// StepContext is Step with an external cancellation signal. On cancellation
// the minor-step loop finishes only its current decompose/solve pair, leaves
// the last solved potentials in place, and returns with the CANCELLED
// outcome; no partial flow transport occurs.
func (s *Solver) StepContext(ctx context.Context, dt float64) error {
	if dt <= 0 {
		return &InvalidConfigError{Field: "dt", Reason: "must be > 0"}
	}

	start := time.Now()

	s.capacitanceApplied = false

	for _, l := range s.links {
		l.Step(dt)
	}
	for i := 0; i < s.order(); i++ {
		s.nodes[i].ResetFlows()
	}

	s.rebuildIslandsIfNeeded()
	copy(s.majorStepStartPotentials, s.snapshotPotentials())
	s.solveTime = 0

	rec := s.runMinorStepLoop(ctx, dt)
	s.log.Push(rec)
	s.lastOutcome = rec.Outcome

	if rec.Outcome != Cancelled {
		for _, l := range s.links {
			l.ComputeFlows(dt)
		}
		for _, l := range s.links {
			l.TransportFlows(dt)
		}
		for i := 0; i < s.order(); i++ {
			s.nodes[i].IntegrateFlows(dt)
		}
	}

	s.majorStepIndex++
	s.stepTime = time.Since(start)
	return nil
}

// SetIslandMode switches islanding behavior at runtime. The partition is
// rebuilt on the next step; if it actually changed, every island of the new
// partition starts dirty.
func (s *Solver) SetIslandMode(mode IslandMode) {
	if s.cfg.IslandMode == mode {
		return
	}
	s.cfg.IslandMode = mode
	if mode != IslandSolveAndExpose {
		for i := 0; i < s.order(); i++ {
			s.nodes[i].SetIslandVector(nil)
		}
	}
}

// SetGpuOptions switches GPU dispatch at runtime: mode selects which GPU
// path (if any) is eligible, threshold sets the minimum island size for
// whichever path mode selects.
func (s *Solver) SetGpuOptions(mode GpuMode, threshold int) {
	s.cfg.GpuMode = mode
	switch mode {
	case GpuDense:
		s.cfg.GpuThreshold = threshold
	case GpuSparse:
		s.cfg.GpuSparseThreshold = threshold
	}
}

// SetWorstCaseTiming forces a decomposition every major step regardless of
// admittance change, for benchmarking and hard-real-time budgeting.
func (s *Solver) SetWorstCaseTiming(force bool) { s.cfg.WorstCaseTiming = force }

// GetSolveTime returns the last major step's combined decompose+solve time.
func (s *Solver) GetSolveTime() time.Duration { return s.solveTime }

// GetStepTime returns the last major step's total wall time.
func (s *Solver) GetStepTime() time.Duration { return s.stepTime }

// GetPotentialVector returns a zero-copy view of the last-solved potential
// vector, length Order().
func (s *Solver) GetPotentialVector() []float64 { return s.sys.X() }

// GetAdmittanceMatrix returns a zero-copy view of the assembled admittance
// matrix, row-major order Order()xOrder().
func (s *Solver) GetAdmittanceMatrix() []float64 { return s.sys.A() }

// GetMinorStepLog returns the log for external snapshotting.
func (s *Solver) GetMinorStepLog() *MinorStepLog { return s.log }

// SetPort rewires linkIndex's port, subject to the link's own port rules. A
// rejected assignment leaves the prior binding untouched (Link.SetPort never
// commits a bad assignment) and is reported through the warning sink, never
// returned as a fatal error.
func (s *Solver) SetPort(linkIndex, portIndex, nodeIndex int) {
	if linkIndex < 0 || linkIndex >= len(s.links) {
		return
	}
	if err := s.links[linkIndex].SetPort(portIndex, nodeIndex); err != nil {
		s.sink.Warnf("%s", err.Error())
	}
}

// Diagnostics is a snapshot of solver-internal state with documented
// stability, for tests and host-side inspection that need more than the
// stepping API.
type Diagnostics struct {
	Admittance  []float64
	Source      []float64
	Order       int
	Islands     [][]int
	LastOutcome Outcome
	// Decompositions counts island factorizations over the solver's
	// lifetime; a clean island reusing its cached factorization does not
	// advance it.
	Decompositions int
}

// Diagnostics returns a snapshot of solver-internal state.
func (s *Solver) Diagnostics() Diagnostics {
	islandsCopy := make([][]int, len(s.islands))
	for i, members := range s.islands {
		c := make([]int, len(members))
		copy(c, members)
		islandsCopy[i] = c
	}
	return Diagnostics{
		Admittance:     append([]float64(nil), s.sys.A()...),
		Source:         append([]float64(nil), s.sys.B()...),
		Order:          s.order(),
		Islands:        islandsCopy,
		LastOutcome:    s.lastOutcome,
		Decompositions: s.decompositions,
	}
}

func (s *Solver) order() int { return s.groundIndex }

// snapshotPotentials returns the current potential of every non-ground node.
func (s *Solver) snapshotPotentials() []float64 {
	out := make([]float64, s.order())
	for i := 0; i < s.order(); i++ {
		out[i] = s.nodes[i].Potential()
	}
	return out
}

// writePotentials copies the most recently solved vector into the non-ground
// nodes, and, under IslandSolveAndExpose, publishes each island's node
// vector onto the nodes it contains.
func (s *Solver) writePotentials() {
	for i := 0; i < s.order(); i++ {
		s.nodes[i].SetPotential(s.xBuffer[i])
	}
	if s.cfg.IslandMode == IslandSolveAndExpose {
		for _, members := range s.islands {
			for _, gi := range members {
				s.nodes[gi].SetIslandVector(members)
			}
		}
	}
}

// reassembleIncremental brings A/b up to date with the links' current
// stamps: a link whose ports, admittance and source all match what was last
// summed into sys contributes nothing; anything else gets its stale
// contribution subtracted and its fresh one added. An admittance (as
// opposed to source-only) change marks the islands touching the link's old
// and new ports dirty, the signal that those islands need re-decomposition
// — a source-only change just needs a fresh solve against the cached
// factorizations.
func (s *Solver) reassembleIncremental() {
	for i, l := range s.links {
		ports := l.Ports()
		adm := l.Admittance()
		src := l.Source()
		l.AcknowledgeAdmittanceRead()
		if s.linkStamped[i] && ports == s.lastPorts[i] && adm == s.lastAdmittance[i] && src == s.lastSource[i] {
			continue
		}
		if s.linkStamped[i] {
			s.sys.AddLinkStamp(s.lastPorts[i], negate4(s.lastAdmittance[i]), negate2(s.lastSource[i]), s.groundIndex)
		}
		if !s.linkStamped[i] || ports != s.lastPorts[i] || adm != s.lastAdmittance[i] {
			if s.linkStamped[i] {
				s.markNodeIslandDirty(s.lastPorts[i][0])
				s.markNodeIslandDirty(s.lastPorts[i][1])
			}
			s.markNodeIslandDirty(ports[0])
			s.markNodeIslandDirty(ports[1])
		}
		s.sys.AddLinkStamp(ports, adm, src, s.groundIndex)
		s.lastPorts[i] = ports
		s.lastAdmittance[i] = adm
		s.lastSource[i] = src
		s.linkStamped[i] = true
	}
}

func negate4(a [4]float64) [4]float64 { return [4]float64{-a[0], -a[1], -a[2], -a[3]} }
func negate2(a [2]float64) [2]float64 { return [2]float64{-a[0], -a[1]} }

// applyCapacitance brings each node's C/dt diagonal term and C/dt*p_prev
// source term up to date, using the potential the node held at the start of
// this major step (backward-Euler discretization of a capacitor). Runs once
// per major step: a capacitor's contribution does not change across minor
// steps within the same step. A diagonal-term change (dt changed, or the
// node's own capacitance was rewritten) marks the node's island dirty — a
// source-term change alone does not require a re-decomposition.
func (s *Solver) applyCapacitance(dt float64) {
	if s.capacitanceApplied {
		return
	}
	s.capacitanceApplied = true

	for i := 0; i < s.order(); i++ {
		var diag, src float64
		if c := s.nodes[i].Capacitance(); c > 0 && dt > 0 {
			diag = c / dt
			src = diag * s.majorStepStartPotentials[i]
		}
		if diag == s.lastCapDiag[i] && src == s.lastCapSource[i] {
			continue
		}
		s.sys.AddCapacitance(i, diag-s.lastCapDiag[i], src-s.lastCapSource[i])
		if diag != s.lastCapDiag[i] {
			s.markNodeIslandDirty(i)
		}
		s.lastCapDiag[i] = diag
		s.lastCapSource[i] = src
	}
}

// markNodeIslandDirty flags the island containing node for re-decomposition.
// Ground and degenerate nodes belong to no island; marking them is a no-op.
func (s *Solver) markNodeIslandDirty(node int) {
	if node < 0 || node >= len(s.nodeIsland) {
		return
	}
	if idx := s.nodeIsland[node]; idx >= 0 && idx < len(s.islandDirty) {
		s.islandDirty[idx] = true
	}
}

// markAllIslandsDirty forces every island to re-decompose at the next
// opportunity (worst-case timing, fresh partitions).
func (s *Solver) markAllIslandsDirty() {
	for i := range s.islandDirty {
		s.islandDirty[i] = true
	}
}

// anyIslandDirty reports whether at least one island needs a fresh
// decomposition. Dirty flags survive a step cut short by the decomposition
// limit, so a stale factorization can never be solved against silently.
func (s *Solver) anyIslandDirty() bool {
	for _, d := range s.islandDirty {
		if d {
			return true
		}
	}
	return false
}

// anyPendingCapacitanceRequest reports whether some node is waiting for a
// network-capacitance probe, which forces its island through a (Cholesky)
// decomposition even when its admittance is unchanged.
func (s *Solver) anyPendingCapacitanceRequest() bool {
	for i := 0; i < s.order(); i++ {
		if s.nodes[i].NetworkCapacitanceRequest() > 0 {
			return true
		}
	}
	return false
}

// rebuildIslandsIfNeeded re-partitions the node graph when islanding is
// enabled and marks the result dirty if it differs from the previous major
// step's partition.
func (s *Solver) rebuildIslandsIfNeeded() {
	var islands [][]int
	var degenerate []int

	switch s.cfg.IslandMode {
	case IslandOff:
		all := make([]int, s.order())
		for i := range all {
			all[i] = i
		}
		islands = [][]int{all}
	default:
		edges := s.collectEdges()
		raw := island.Partition(s.order(), edges)
		for _, members := range raw {
			if len(members) == 1 && s.nodes[members[0]].Capacitance() <= 0 && !s.nodeHasAnyAdmittance(members[0]) {
				n := members[0]
				degenerate = append(degenerate, n)
				s.sink.Warnf("node %d is unconnected with zero capacitance; forcing potential to zero", n)
				continue
			}
			islands = append(islands, members)
		}
	}

	if !islandsEqual(s.islands, islands) {
		s.islands = islands
		s.islandDirty = make([]bool, len(islands))
		s.islandBackends = make([]backend.Backend, len(islands))
		if s.nodeIsland == nil {
			s.nodeIsland = make([]int, s.order())
		}
		for i := range s.nodeIsland {
			s.nodeIsland[i] = -1
		}
		for idx, members := range islands {
			for _, gi := range members {
				s.nodeIsland[gi] = idx
			}
		}
		s.markAllIslandsDirty()
	}
	s.degenerateNodes = degenerate
}

// collectEdges derives the conductively-connected relation directly from
// each link's current off-diagonal admittance: two nodes are connected iff
// some link stamps a non-zero off-diagonal block between them this major
// step.
func (s *Solver) collectEdges() []island.Edge {
	edges := make([]island.Edge, 0, len(s.links))
	for _, l := range s.links {
		ports := l.Ports()
		if ports[0] == s.groundIndex || ports[1] == s.groundIndex {
			continue
		}
		adm := l.Admittance()
		if adm[1] != 0 || adm[2] != 0 {
			edges = append(edges, island.Edge{A: ports[0], B: ports[1]})
		}
	}
	return edges
}

// nodeHasAnyAdmittance reports whether any link currently stamps a non-zero
// diagonal admittance contribution touching nodeIdx, including a link whose
// other port is ground. A node wired only to ground (e.g. a potential
// divider leg) is legitimately connected and must not be treated as
// unconnected; collectEdges deliberately excludes ground-incident links from
// the islanding graph, so that exclusion must not be mistaken for
// disconnection here.
func (s *Solver) nodeHasAnyAdmittance(nodeIdx int) bool {
	for _, l := range s.links {
		ports := l.Ports()
		adm := l.Admittance()
		if ports[0] == nodeIdx && adm[0] != 0 {
			return true
		}
		if ports[1] == nodeIdx && adm[3] != 0 {
			return true
		}
	}
	return false
}

func islandsEqual(a, b [][]int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

// decomposeIslands re-factors every dirty island's submatrix with a backend
// chosen per-island, per-step: island size against the tunable thresholds,
// pinned to CPU_CHOLESKY whenever a node in that island has a pending
// network-capacitance request (a pending request also forces the island
// through a decomposition even when its admittance is unchanged, so the
// probe is serviced on the very next solve). Clean islands keep their
// cached factorization untouched. A singular decomposition falls back to
// CPU_LU; if that is singular too, the island is treated as degenerate and
// its potentials are zeroed.
func (s *Solver) decomposeIslands() {
	decomposeStart := time.Now()

	for idx, members := range s.islands {
		n := len(members)
		if n == 0 {
			s.islandDirty[idx] = false
			continue
		}

		capRequested := false
		for _, gi := range members {
			if s.nodes[gi].NetworkCapacitanceRequest() > 0 {
				capRequested = true
				break
			}
		}
		if !s.islandDirty[idx] && !capRequested {
			continue
		}
		s.decompositions++

		sub, _ := s.sys.SubMatrix(members)
		for k := 0; k < n; k++ {
			if sub[k*n+k] < s.cfg.MinLinearization {
				sub[k*n+k] = s.cfg.MinLinearization
			}
		}

		kind := backend.Select(n, toBackendGpuMode(s.cfg.GpuMode), s.cfg.GpuThreshold, s.cfg.GpuSparseThreshold, s.cfg.SparseThreshold, capRequested)
		be := backend.New(kind)
		status := be.Decompose(sub, n)

		if status == backend.Singular {
			s.sink.Warnf("%s decomposition singular for an island of size %d, falling back to CPU_LU", kind, n)
			lu := backend.New(backend.CPULU)
			status = lu.Decompose(sub, n)
			be = lu
			kind = backend.CPULU
			if status == backend.Singular {
				s.sink.Warnf("CPU_LU decomposition also singular for an island of size %d; zeroing its potentials", n)
				for _, gi := range members {
					s.xBuffer[gi] = 0
				}
			}
		}
		s.islandBackends[idx] = be
		s.islandDirty[idx] = false

		if capRequested {
			if kind == backend.CPUCholesky {
				s.serviceCapacitanceRequests(members, be)
			} else {
				for _, gi := range members {
					if s.nodes[gi].NetworkCapacitanceRequest() > 0 {
						s.sink.Warnf("%s", (&CapacitanceUnsupportedError{NodeIndex: gi, Backend: kind.String()}).Error())
						s.nodes[gi].consumeCapacitanceRequest()
					}
				}
			}
		}
	}

	s.solveTime += time.Since(decomposeStart)
}

// serviceCapacitanceRequests computes and records the network-capacitance
// response for every node in an island with a pending request: the response
// is the (node, node) entry of A^-1, and the full column is exposed as the
// delta-potential response vector for analysis. Only valid behind a
// CPU_CHOLESKY decomposition.
func (s *Solver) serviceCapacitanceRequests(members []int, be backend.Backend) {
	chol, ok := be.(*backend.CholeskyBackend)
	if !ok {
		return
	}
	for localIdx, gi := range members {
		n := s.nodes[gi]
		if n.NetworkCapacitanceRequest() <= 0 {
			continue
		}
		col := chol.InverseColumn(localIdx)
		deltaP := make([]float64, s.order())
		for k, gk := range members {
			deltaP[gk] = col[k]
		}
		n.SetNetCapDeltaPotential(deltaP)
		n.SetNetworkCapacitance(col[localIdx])
		n.consumeCapacitanceRequest()
	}
}

// solveIslands solves each island's submatrix with its already-decomposed
// backend against a freshly extracted b: the decomposition is reused across
// minor steps that didn't change admittance, only b needs resolving.
// Degenerate nodes are held at zero and never touch a backend.
func (s *Solver) solveIslands() {
	solveStart := time.Now()
	for _, gi := range s.degenerateNodes {
		s.xBuffer[gi] = 0
	}
	for idx, members := range s.islands {
		be := s.islandBackends[idx]
		if be == nil {
			continue
		}
		subB := s.sys.SubVector(members)
		dst := make([]float64, len(members))
		be.Solve(dst, subB)
		for i, gi := range members {
			s.xBuffer[gi] = dst[i]
		}
	}
	s.sys.SetX(s.xBuffer)
	s.solveTime += time.Since(solveStart)
}

func toBackendGpuMode(m GpuMode) backend.GpuMode {
	switch m {
	case GpuDense:
		return backend.GpuDense
	case GpuSparse:
		return backend.GpuSparse
	default:
		return backend.GpuNone
	}
}
