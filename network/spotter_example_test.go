// Copyright 2019 United States Government as represented by the Administrator of
// the National Aeronautics and Space Administration. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package network_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasa/gunns-go/network"
)

// logSpotter is the pattern an external consumer uses to read the
// MinorStepLog off the solver's stepping thread: poll Snapshot(), skip a nil
// return (the log was mid-write) rather than block, and only ever read the
// copy it was handed.
type logSpotter struct {
	majorSteps int
	rejections int
}

func (s *logSpotter) poll(log *network.MinorStepLog) {
	snap := log.Snapshot()
	if snap == nil {
		return
	}
	s.majorSteps = len(snap)
	for _, rec := range snap {
		for _, minor := range rec.MinorSteps {
			for i := 0; i < 8; i++ {
				if minor.LinkBits.Get(i) {
					s.rejections++
				}
			}
		}
	}
}

// TestSpotterConsumesMinorStepLogWithoutBlockingSolver exercises the
// handshake end-to-end: a plain two-node divider network steps a few times
// on one goroutine while an independent spotter polls the same log, the way
// a telemetry/diagnostics consumer would in a real integration, with no
// channel or mutex shared between producer and consumer.
func TestSpotterConsumesMinorStepLogWithoutBlockingSolver(t *testing.T) {
	nodes := []*network.Node{network.NewNode(0, "A"), network.NewGroundNode(1)}
	src := network.NewPotentialLink(1.0, 10.0)
	require.NoError(t, src.Initialize(nodes, [2]int{1, 0}))
	load := network.NewConductorLink(1.0)
	require.NoError(t, load.Initialize(nodes, [2]int{0, 1}))

	solver := network.NewSolver(nil)
	require.NoError(t, solver.Initialize(network.DefaultConfig(), []network.Link{src, load}, nodes))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			if err := solver.Step(0.1); err != nil {
				t.Errorf("step %d: %v", i, err)
				return
			}
		}
	}()

	spotter := &logSpotter{}
	for {
		select {
		case <-done:
			spotter.poll(solver.GetMinorStepLog())
			assert.GreaterOrEqual(t, spotter.majorSteps, 1)
			assert.Equal(t, 0, spotter.rejections, "a linear two-node divider never rejects a minor step")
			assert.InDelta(t, 5.0, nodes[0].Potential(), 1e-9)
			return
		default:
			spotter.poll(solver.GetMinorStepLog())
			time.Sleep(time.Millisecond)
		}
	}
}
