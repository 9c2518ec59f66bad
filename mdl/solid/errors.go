// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solid

import "github.com/cpmech/gosl/io"

// MaterialDomainError reports a material parameter outside of its valid range
type MaterialDomainError struct {
	Param  string  // parameter name
	Value  float64 // given value
	Reason string  // description
}

// Error implements error
func (o *MaterialDomainError) Error() string {
	return io.Sf("invalid material parameter %s = %g: %s", o.Param, o.Value, o.Reason)
}
