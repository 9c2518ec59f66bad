// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package out

import (
	"os"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/go-gl/mathgl/mgl64"
)

func verbose() {
	io.Verbose = true
	chk.Verbose = true
}

func flatten(x []mgl64.Vec3) (res []float64) {
	for _, p := range x {
		res = append(res, p[0], p[1], p[2])
	}
	return
}

func Test_cache01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("cache01. write, read, validate and clear")

	for _, enctype := range []string{"gob", "json"} {

		dir, err := os.MkdirTemp("", "softfem_cache")
		if err != nil {
			tst.Errorf("MkdirTemp failed:\n%v", err)
			return
		}
		defer os.RemoveAll(dir)

		// write
		c := NewCache(dir, enctype)
		c.Info.Key = "drop"
		c.Info.FrameStart, c.Info.FrameEnd, c.Info.Fps = 1, 3, 24
		c.Info.Bodies["cube"] = &BodyInfo{Nverts: 2, Ntets: 1}
		for f := 1; f <= 3; f++ {
			fr := &Frame{
				Frame:      f,
				T:          float64(f) / 24.0,
				Positions:  []mgl64.Vec3{{0, 0, float64(f)}, {1, 0.5, -0.25}},
				Velocities: []mgl64.Vec3{{0, 0, -1}, {0, 0, 0}},
			}
			err = c.WriteFrame("cube", fr)
			if err != nil {
				tst.Errorf("WriteFrame failed:\n%v", err)
				return
			}
		}
		c.Info.Baked = true
		err = c.WriteInfo()
		if err != nil {
			tst.Errorf("WriteInfo failed:\n%v", err)
			return
		}
		chk.String(tst, c.FramePath("cube", 2), io.Sf("%s/cube/frame_0002.%s", dir, enctype))

		// read
		d, err := OpenCache(dir)
		if err != nil {
			tst.Errorf("OpenCache failed:\n%v", err)
			return
		}
		chk.String(tst, d.EncType, enctype)
		chk.String(tst, d.Info.Key, "drop")
		chk.Int(tst, "frame_end", d.Info.FrameEnd, 3)
		chk.Int(tst, "count", d.Count(), 3)
		chk.Ints(tst, "frames", d.Frames("cube"), []int{1, 2, 3})
		if !d.Info.Baked {
			tst.Errorf("cache should be baked")
		}
		fr, err := d.ReadFrame("cube", 2)
		if err != nil {
			tst.Errorf("ReadFrame failed:\n%v", err)
			return
		}
		chk.Int(tst, "frame", fr.Frame, 2)
		chk.Float64(tst, "t", 1e-17, fr.T, 2.0/24.0)
		chk.Array(tst, "x", 1e-17, flatten(fr.Positions), []float64{0, 0, 2, 1, 0.5, -0.25})
		chk.Array(tst, "v", 1e-17, flatten(fr.Velocities), []float64{0, 0, -1, 0, 0, 0})
		err = d.Validate()
		if err != nil {
			tst.Errorf("Validate failed:\n%v", err)
		}
		if d.Size() <= 0 {
			tst.Errorf("size should be positive")
		}

		// missing frame
		err = os.Remove(d.FramePath("cube", 2))
		if err != nil {
			tst.Errorf("Remove failed:\n%v", err)
			return
		}
		err = d.Validate()
		if err == nil {
			tst.Errorf("Validate should detect the missing frame")
		}
		io.Pforan("%v\n", err)

		// wrong number of vertices
		d.Info.Bodies["cube"].Nverts = 3
		d.Info.FrameEnd = 1
		if err = d.Validate(); err == nil {
			tst.Errorf("Validate should detect the wrong number of vertices")
		}

		// clear
		err = d.Clear()
		if err != nil {
			tst.Errorf("Clear failed:\n%v", err)
			return
		}
		chk.Int(tst, "count after clear", d.Count(), 0)
		if _, err = OpenCache(dir); err == nil {
			tst.Errorf("summary should be removed")
		}
	}
}
