// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package out

import (
	"context"
	"time"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"go.uber.org/zap"

	"github.com/gofem/softfem/fem"
	"github.com/gofem/softfem/inp"
)

// Bake steps all bodies of a scene over its frame range and writes every frame to a
// cache in scn.DirOut. A previous cache in the same directory is cleared. If a step
// fails, the frames written so far are kept and the summary is saved with Baked=false.
//  log     -- logger; may be nil
//  verbose -- show progress messages
func Bake(ctx context.Context, scn *inp.Scene, log *zap.Logger, verbose bool) (c *Cache, err error) {

	// driver
	if log == nil {
		log = zap.NewNop()
	}
	d, err := fem.NewDriver(scn.Settings, log)
	if err != nil {
		return
	}
	handles, warnings, err := scn.Build(d)
	if err != nil {
		return
	}
	for _, w := range warnings {
		if verbose {
			io.Pfyel("> warning: %v\n", w)
		}
	}

	// clear previous results
	if prev, e := OpenCache(scn.DirOut); e == nil {
		err = prev.Clear()
		if err != nil {
			return
		}
	}

	// new cache
	c = NewCache(scn.DirOut, scn.EncType)
	c.Info.Key = scn.Key
	c.Info.FrameStart = scn.Data.FrameStart
	c.Info.FrameEnd = scn.Data.FrameStart - 1
	c.Info.Fps = scn.Data.Fps
	names := BodyNames(scn)
	for i, h := range handles {
		b, _ := d.Body(h)
		c.Info.Bodies[names[i]] = &BodyInfo{Nverts: b.Mesh.Nverts(), Ntets: b.Mesh.Ntets()}
	}

	// frames
	cputime := time.Now()
	g := scn.Gravity()
	defer func() {
		if e := c.WriteInfo(); e != nil && err == nil {
			err = e
		}
	}()
	for frame := scn.Data.FrameStart; frame <= scn.Data.FrameEnd; frame++ {
		res, e := d.StepAll(ctx, scn.Dt, g)
		if e != nil {
			return c, chk.Err("bake failed at frame %d:\n%v", frame, e)
		}
		for i, h := range handles {
			r := res[h]
			err = c.WriteFrame(names[i], &Frame{Frame: frame, T: r.T, Positions: r.Positions, Velocities: r.Velocities})
			if err != nil {
				return
			}
		}
		c.Info.FrameEnd = frame
		if verbose {
			io.Pf("> frame %4d  t = %8.4f  (%v)\n", frame, res[handles[0]].T, time.Since(cputime))
		}
	}
	c.Info.Baked = true
	log.Info("bake finished", zap.String("key", scn.Key), zap.Int("frames", scn.Nframes()),
		zap.Duration("cputime", time.Since(cputime)))
	return
}

// BodyNames returns unique cache names for all bodies of a scene
func BodyNames(scn *inp.Scene) (names []string) {
	used := make(map[string]bool)
	for i, b := range scn.Bodies {
		name := b.Name
		if name == "" || used[name] {
			name = io.Sf("body%d", i)
		}
		used[name] = true
		names = append(names, name)
	}
	return
}
