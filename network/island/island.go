// Copyright 2019 United States Government as represented by the Administrator of
// the National Aeronautics and Space Administration. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package island partitions a node graph into conductively-connected
// islands via union-find over link adjacency. Each island defines a dense
// sub-matrix of the admittance system that the solver factors and solves
// independently.
package island

import "sort"

// Mode selects how much partitioning work the Islander performs.
type Mode int

const (
	// Off treats the whole non-ground node set as a single island.
	Off Mode = iota
	// Solve partitions and solves each island independently.
	Solve
	// SolveAndExpose additionally publishes each island's node list back to
	// the nodes it contains.
	SolveAndExpose
)

func (m Mode) String() string {
	switch m {
	case Off:
		return "OFF"
	case Solve:
		return "SOLVE"
	case SolveAndExpose:
		return "SOLVE_AND_EXPOSE"
	default:
		return "UNKNOWN"
	}
}

// Edge is one link's contribution to the conductive-adjacency relation:
// ports A and B are connected because some link currently stamps a non-zero
// admittance between them.
type Edge struct {
	A, B int
}

// Partition computes the islands of numNodes non-ground nodes (indices
// [0, numNodes)) given the adjacency edges contributed by link stamps this
// major step. The returned islands are sorted ascending by node index
// within each island, and islands themselves are ordered by their smallest
// member, for deterministic iteration.
//
// A node with no incident edge forms its own singleton island; the solver
// decides separately whether a singleton with zero capacitance should be
// treated as degenerate, since that judgment needs capacitance data the
// Islander does not have.
func Partition(numNodes int, edges []Edge) [][]int {
	parent := make([]int, numNodes)
	rank := make([]int, numNodes)
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		if rank[ra] < rank[rb] {
			parent[ra] = rb
		} else {
			parent[rb] = ra
			if rank[ra] == rank[rb] {
				rank[ra]++
			}
		}
	}

	for _, e := range edges {
		if e.A < 0 || e.A >= numNodes || e.B < 0 || e.B >= numNodes {
			continue
		}
		union(e.A, e.B)
	}

	byRoot := make(map[int][]int, numNodes)
	for n := 0; n < numNodes; n++ {
		root := find(n)
		byRoot[root] = append(byRoot[root], n)
	}

	islands := make([][]int, 0, len(byRoot))
	for _, members := range byRoot {
		sort.Ints(members)
		islands = append(islands, members)
	}
	sort.Slice(islands, func(i, j int) bool {
		return islands[i][0] < islands[j][0]
	})
	return islands
}

// IslandOf returns the index into islands of the island containing node n,
// or -1 if not found. Useful for building per-island submatrix maps.
func IslandOf(islands [][]int, n int) int {
	for i, members := range islands {
		idx := sort.SearchInts(members, n)
		if idx < len(members) && members[idx] == n {
			return i
		}
	}
	return -1
}
