// Copyright 2019 United States Government as represented by the Administrator of
// the National Aeronautics and Space Administration. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package island

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionSingletonsWithNoEdges(t *testing.T) {
	islands := Partition(3, nil)
	require := []int{0, 1, 2}
	got := make([]int, 0, 3)
	for _, isl := range islands {
		got = append(got, isl...)
	}
	assert.ElementsMatch(t, require, got)
	assert.Len(t, islands, 3, "no edges means every node is its own island")
}

func TestPartitionMergesConnectedNodes(t *testing.T) {
	islands := Partition(5, []Edge{{A: 0, B: 1}, {A: 1, B: 2}, {A: 3, B: 4}})
	assert.Len(t, islands, 2)
	assert.Equal(t, []int{0, 1, 2}, islands[0])
	assert.Equal(t, []int{3, 4}, islands[1])
}

func TestPartitionIgnoresOutOfRangeEdges(t *testing.T) {
	islands := Partition(2, []Edge{{A: 0, B: 1}, {A: 0, B: 99}})
	assert.Len(t, islands, 1)
	assert.Equal(t, []int{0, 1}, islands[0])
}

func TestPartitionOrderedBySmallestMember(t *testing.T) {
	islands := Partition(4, []Edge{{A: 3, B: 2}})
	// islands: {0}, {1}, {2,3} -- sorted ascending by smallest member.
	assert.Equal(t, 0, islands[0][0])
	assert.Equal(t, 1, islands[1][0])
	assert.Equal(t, 2, islands[2][0])
}

func TestIslandOf(t *testing.T) {
	islands := Partition(4, []Edge{{A: 0, B: 1}, {A: 2, B: 3}})
	idxA := IslandOf(islands, 1)
	idxB := IslandOf(islands, 3)
	assert.NotEqual(t, idxA, idxB)
	assert.Equal(t, -1, IslandOf(islands, 42))
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "OFF", Off.String())
	assert.Equal(t, "SOLVE", Solve.String())
	assert.Equal(t, "SOLVE_AND_EXPOSE", SolveAndExpose.String())
}
