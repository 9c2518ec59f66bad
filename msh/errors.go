// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msh

import "github.com/cpmech/gosl/io"

// InvalidTopologyError reports a malformed or degenerate mesh given to Build
type InvalidTopologyError struct {
	Tet    int    // offending tetrahedron or -1
	Vertex int    // offending vertex or -1
	Msg    string // description
}

// Error implements error
func (o *InvalidTopologyError) Error() string {
	return io.Sf("invalid topology: %s", o.Msg)
}

func topoErr(tet, vert int, msg string) *InvalidTopologyError {
	return &InvalidTopologyError{Tet: tet, Vertex: vert, Msg: msg}
}
