// Copyright 2019 United States Government as represented by the Administrator of
// the National Aeronautics and Space Administration. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package network

import (
	"fmt"
	"io"
	"os"
)

// WarningSink is the injected messaging collaborator the solver reports
// recoverable runtime failures through (singular decompositions, degenerate
// unconnected nodes, rejected port assignments, unsupported capacitance
// requests). A malformed link stamp is replaced by the zero stamp without a
// warning, and non-convergence is recorded only in the MinorStepLog. The
// host's health-and-status messaging facility sits behind this interface;
// the solver never talks to a process-global logger.
type WarningSink interface {
	Warnf(format string, args ...any)
}

// StderrSink is the default WarningSink: a prefixed line written to an
// io.Writer (stderr by default).
type StderrSink struct {
	Out io.Writer
}

// NewStderrSink returns a StderrSink writing to os.Stderr.
func NewStderrSink() *StderrSink {
	return &StderrSink{Out: os.Stderr}
}

// Warnf implements WarningSink.
func (s *StderrSink) Warnf(format string, args ...any) {
	out := s.Out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintf(out, "[gunns] WARNING: "+format+"\n", args...)
}

// discardSink is used where no sink was supplied; it never panics on a nil
// WarningSink field.
type discardSink struct{}

func (discardSink) Warnf(string, ...any) {}
