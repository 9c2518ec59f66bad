// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fem

import "github.com/cpmech/gosl/io"

// DivergenceError reports a non-finite or runaway state after a substep.
// The frame is discarded and the body stops advancing until Reset is called
// or a smaller time step is requested.
type DivergenceError struct {
	Body    Handle  // body handle
	Vertex  int     // first offending vertex or -1
	Time    float64 // time at the beginning of the failed frame
	Dt      float64 // requested frame time step
	Substep int     // failed substep or -1 if the body was already halted
	Reason  string  // description
}

// Error implements error
func (o *DivergenceError) Error() string {
	return io.Sf("body %d diverged at t=%g (dt=%g, substep %d, vertex %d): %s", o.Body, o.Time, o.Dt, o.Substep, o.Vertex, o.Reason)
}
