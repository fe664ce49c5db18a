// Copyright 2019 United States Government as represented by the Administrator of
// the National Aeronautics and Space Administration. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package network

import (
	"context"
	"math"
)

// nodeConverged is the per-node potential convergence test:
// |p_k - p_{k-1}| < absTol + relTol*max(|p_k|,|p_{k-1}|).
func nodeConverged(pk, pPrev, absTol, relTol float64) bool {
	return math.Abs(pk-pPrev) < absTol+relTol*math.Max(math.Abs(pk), math.Abs(pPrev))
}

// runMinorStepLoop drives the inner non-linear convergence loop for one
// major step: re-stamp, incrementally re-assemble, decompose the dirty
// islands, solve every island, ask every link to confirm, and repeat until
// every link confirms or a limit is hit. It returns the completed
// MajorStepRecord and leaves the nodes holding the final potentials.
//
// Termination is gated on link confirmation alone: a minor step where every
// link returns Confirmed is SUCCESS. The per-node potential test only
// populates the log record's node bitset; a node whose potential legitimately
// moved because a source term changed must not force an extra minor step
// when every link already accepted the solve.
func (s *Solver) runMinorStepLoop(ctx context.Context, dt float64) MajorStepRecord {
	rec := MajorStepRecord{MajorStepIndex: s.majorStepIndex}
	decompCount := 0
	prevPotentials := s.snapshotPotentials()

	for minorStep := 0; ; minorStep++ {
		select {
		case <-ctx.Done():
			rec.Outcome = Cancelled
			rec.MinorStepCount = minorStep
			return rec
		default:
		}

		for _, l := range s.links {
			l.MinorStep(dt, minorStep)
		}

		s.reassembleIncremental()
		s.applyCapacitance(dt)
		if s.cfg.WorstCaseTiming {
			s.markAllIslandsDirty()
		}

		if s.anyIslandDirty() || s.anyPendingCapacitanceRequest() {
			decompCount++
			if decompCount > s.cfg.DecompositionLimit {
				// A is already re-assembled with the new stamps; the islands
				// they touched stay dirty, so the next step cannot solve
				// against the stale factorizations. Keep the last solved
				// potentials.
				rec.Outcome = DecompLimit
				rec.MinorStepCount = minorStep
				return rec
			}
			s.decomposeIslands()
		}
		s.solveIslands()
		s.writePotentials()

		nodeBits := NewBitset(s.order())
		linkBits := NewBitset(len(s.links))
		for i := 0; i < s.order(); i++ {
			pk := s.nodes[i].Potential()
			if !nodeConverged(pk, prevPotentials[i], s.cfg.ConvergenceTol, s.cfg.ConvergenceRelTol) {
				nodeBits.Set(i)
			}
		}
		allConfirmed := true
		for i, l := range s.links {
			outcome := l.ConfirmSolutionAcceptable(minorStep, s.majorStepIndex)
			if outcome != Confirmed {
				linkBits.Set(i)
				allConfirmed = false
			}
		}
		rec.MinorSteps = append(rec.MinorSteps, MinorStepRecord{NodeBits: nodeBits, LinkBits: linkBits})
		prevPotentials = s.snapshotPotentials()

		if allConfirmed {
			rec.Outcome = Success
			rec.MinorStepCount = minorStep + 1
			return rec
		}
		if minorStep+1 >= s.cfg.MinorStepLimit {
			rec.Outcome = MinorLimit
			rec.MinorStepCount = minorStep + 1
			return rec
		}
	}
}
