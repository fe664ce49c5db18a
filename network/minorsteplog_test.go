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

func TestBitsetSetAndGet(t *testing.T) {
	b := NewBitset(130) // spans more than two 64-bit words
	assert.False(t, b.Get(0))
	b.Set(0)
	b.Set(64)
	b.Set(129)
	assert.True(t, b.Get(0))
	assert.True(t, b.Get(64))
	assert.True(t, b.Get(129))
	assert.False(t, b.Get(1))
}

func TestBitsetOutOfRangeIsSafe(t *testing.T) {
	b := NewBitset(4)
	assert.NotPanics(t, func() { b.Set(-1) })
	assert.NotPanics(t, func() { b.Set(1000) })
	assert.False(t, b.Get(-1))
	assert.False(t, b.Get(1000))
}

func TestBitsetCloneIsIndependent(t *testing.T) {
	b := NewBitset(64)
	b.Set(3)
	c := b.Clone()
	c.Set(4)
	assert.True(t, b.Get(3))
	assert.False(t, b.Get(4), "mutating the clone must not affect the original")
}

func TestMinorStepLogRingEviction(t *testing.T) {
	log := NewMinorStepLog(2)
	log.Push(MajorStepRecord{MajorStepIndex: 0, Outcome: Success})
	log.Push(MajorStepRecord{MajorStepIndex: 1, Outcome: Success})
	log.Push(MajorStepRecord{MajorStepIndex: 2, Outcome: Success})

	snap := log.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, 1, snap[0].MajorStepIndex, "oldest record evicted, oldest surviving first")
	assert.Equal(t, 2, snap[1].MajorStepIndex)
}

func TestMinorStepLogSnapshotIsOwnedCopy(t *testing.T) {
	log := NewMinorStepLog(4)
	rec := MajorStepRecord{
		MajorStepIndex: 0,
		MinorSteps:     []MinorStepRecord{{NodeBits: NewBitset(8), LinkBits: NewBitset(8)}},
	}
	rec.MinorSteps[0].NodeBits.Set(1)
	log.Push(rec)

	snap := log.Snapshot()
	require.Len(t, snap, 1)
	snap[0].MinorSteps[0].NodeBits.Set(2)

	snap2 := log.Snapshot()
	assert.False(t, snap2[0].MinorSteps[0].NodeBits.Get(2), "mutating a snapshot must not affect the log's own copy")
}

func TestMinorStepLogSnapshotSkippedWhileLocked(t *testing.T) {
	log := NewMinorStepLog(4)
	log.locked.Store(true)
	assert.Nil(t, log.Snapshot(), "consumer must retry rather than read a possibly torn record")
}
