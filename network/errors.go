// Copyright 2019 United States Government as represented by the Administrator of
// the National Aeronautics and Space Administration. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package network

import "fmt"

// InvalidConfigError reports a Solver or link configuration value that cannot be
// accepted. It is fatal at initialize time: the caller must fix the configuration
// and retry, the solver does not attempt to recover from it.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

// BadPortAssignmentError reports a port rule violation, either at link
// initialization or at a runtime SetPort call. Both cases are fail-closed: a
// runtime SetPort that fails this way leaves the port bound to its previous node.
type BadPortAssignmentError struct {
	Link   string
	Port   int
	NodeID int
	Reason string
}

func (e *BadPortAssignmentError) Error() string {
	return fmt.Sprintf("bad port assignment on link %q port %d -> node %d: %s",
		e.Link, e.Port, e.NodeID, e.Reason)
}

// NumericOverflowError reports an invalid (non-finite or negative) flow value
// offered to a Node's flow accumulators; the accumulator is left unchanged.
// Link holds the name of the rejecting node. Malformed link stamps do not
// produce this error: LinkBase replaces them with the zero stamp directly.
type NumericOverflowError struct {
	Link  string
	Field string
}

func (e *NumericOverflowError) Error() string {
	return fmt.Sprintf("non-finite value entering %s on link %q", e.Field, e.Link)
}

// CapacitanceUnsupportedError reports a pending network-capacitance request on an
// island that did not end up solved by the Cholesky backend. The request is
// dropped (consumed without a result, not retried) and the sink is warned.
type CapacitanceUnsupportedError struct {
	NodeIndex int
	Backend   string
}

func (e *CapacitanceUnsupportedError) Error() string {
	return fmt.Sprintf("network capacitance request on node %d ignored: solved with %s, not CPU_CHOLESKY",
		e.NodeIndex, e.Backend)
}
