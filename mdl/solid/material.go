// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solid

import (
	"sort"
	"strings"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
)

// DefaultModel is used when a material does not name a model
const DefaultModel = "neohookean"

// Material holds a model name and its parameters
type Material struct {
	Name  string     `yaml:"name" json:"name"`   // material name (optional)
	Model string     `yaml:"model" json:"model"` // model name; e.g. "neohookean"
	Prms  dbf.Params `yaml:"-" json:"-"`         // parameters
}

// Alloc allocates and initialises the model of this material
func (o Material) Alloc() (model Model, err error) {
	name := o.Model
	if name == "" {
		name = DefaultModel
	}
	model, err = New(name)
	if err != nil {
		return
	}
	err = model.Init(o.Prms)
	return
}

// Get returns the value of parameter n and whether it exists
func (o Material) Get(n string) (v float64, ok bool) {
	for _, p := range o.Prms {
		if strings.EqualFold(p.N, n) {
			return p.V, true
		}
	}
	return
}

// Set sets or adds parameter n
func (o *Material) Set(n string, v float64) {
	for _, p := range o.Prms {
		if strings.EqualFold(p.N, n) {
			p.V = v
			return
		}
	}
	o.Prms = append(o.Prms, &dbf.P{N: n, V: v})
}

// presets //////////////////////////////////////////////////////////////////////////////////////

// preset holds {μ, λ, kd, ρ}
type preset struct {
	mu, lambda, kd, rho float64
}

// presets holds named parameter sets for quick setup
var presets = map[string]preset{
	"SOFT_RUBBER": {1000, 5000, 0.5, 100},
	"HARD_RUBBER": {5000, 20000, 0.1, 200},
	"JELLY":       {500, 2000, 1.0, 80},
	"SOFT_FOAM":   {300, 1000, 0.8, 50},
	"STIFF":       {10000, 50000, 0.05, 300},
}

// Preset returns a new neohookean material with the parameters of a named preset
func Preset(name string) (mat Material, err error) {
	p, ok := presets[strings.ToUpper(name)]
	if !ok {
		return mat, chk.Err("preset %q is not available. options are %v", name, PresetNames())
	}
	mat = Material{
		Name:  strings.ToUpper(name),
		Model: DefaultModel,
		Prms: dbf.Params{
			&dbf.P{N: "mu", V: p.mu},
			&dbf.P{N: "lambda", V: p.lambda},
			&dbf.P{N: "kd", V: p.kd},
			&dbf.P{N: "rho", V: p.rho},
		},
	}
	return
}

// PresetNames returns the sorted names of all presets
func PresetNames() (names []string) {
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}
