// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package out

import (
	"context"
	"os"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/gofem/softfem/inp"
)

func Test_bake01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("bake01. bake scene into cache")

	scn, err := inp.ReadScene("data/bounce.yaml", "")
	if err != nil {
		tst.Errorf("ReadScene failed:\n%v", err)
		return
	}
	dir, err := os.MkdirTemp("", "softfem_bake")
	if err != nil {
		tst.Errorf("MkdirTemp failed:\n%v", err)
		return
	}
	defer os.RemoveAll(dir)
	scn.DirOut = dir

	chk.Strings(tst, "names", BodyNames(scn), []string{"cube", "body1"})

	// bake twice: the second run replaces the first
	for run := 0; run < 2; run++ {
		c, err := Bake(context.Background(), scn, nil, chk.Verbose)
		if err != nil {
			tst.Errorf("Bake failed:\n%v", err)
			return
		}
		chk.Int(tst, "count", c.Count(), 30)
	}

	// check cache
	c, err := OpenCache(dir)
	if err != nil {
		tst.Errorf("OpenCache failed:\n%v", err)
		return
	}
	if !c.Info.Baked {
		tst.Errorf("cache should be baked")
	}
	chk.Int(tst, "frame_start", c.Info.FrameStart, 1)
	chk.Int(tst, "frame_end", c.Info.FrameEnd, 15)
	chk.Int(tst, "cube: nverts", c.Info.Bodies["cube"].Nverts, 8)
	chk.Int(tst, "body1: ntets", c.Info.Bodies["body1"].Ntets, 1)
	err = c.Validate()
	if err != nil {
		tst.Errorf("Validate failed:\n%v", err)
	}

	// frames move down and stay above the ground
	fr1, _ := c.ReadFrame("cube", 1)
	fr15, err := c.ReadFrame("cube", 15)
	if err != nil {
		tst.Errorf("ReadFrame failed:\n%v", err)
		return
	}
	chk.Float64(tst, "t1", 1e-12, fr1.T, 1.0/30.0)
	chk.Float64(tst, "t15", 1e-12, fr15.T, 0.5)
	for i, x := range fr15.Positions {
		io.Pforan("x%d = %v\n", i, x)
		if x[2] < -1e-9 {
			tst.Errorf("vertex %d is below the ground: %v", i, x)
		}
		if x[2] >= fr1.Positions[i][2] {
			tst.Errorf("vertex %d should move down", i)
		}
	}
}

func Test_bake02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("bake02. cancelled bake keeps summary")

	scn, err := inp.ReadScene("data/bounce.yaml", "")
	if err != nil {
		tst.Errorf("ReadScene failed:\n%v", err)
		return
	}
	dir, err := os.MkdirTemp("", "softfem_bake")
	if err != nil {
		tst.Errorf("MkdirTemp failed:\n%v", err)
		return
	}
	defer os.RemoveAll(dir)
	scn.DirOut = dir

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Bake(ctx, scn, nil, false)
	if err == nil {
		tst.Errorf("cancelled bake should fail")
		return
	}
	c, err := OpenCache(dir)
	if err != nil {
		tst.Errorf("OpenCache failed:\n%v", err)
		return
	}
	if c.Info.Baked {
		tst.Errorf("cancelled cache should not be baked")
	}
	chk.Int(tst, "count", c.Count(), 0)
}
