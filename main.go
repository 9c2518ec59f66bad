// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"go.uber.org/zap"

	"github.com/gofem/softfem/inp"
	"github.com/gofem/softfem/logger"
	"github.com/gofem/softfem/out"
)

func main() {

	// catch errors
	defer func() {
		if err := recover(); err != nil {
			io.PfRed("\nERROR: %v", err)
			io.Pf("See location of error below:\n")
			chk.Verbose = true
			for i := 5; i > 3; i-- {
				chk.CallerInfo(i)
			}
			os.Exit(1)
		}
	}()

	// read input parameters
	fnamepath, _ := io.ArgToFilename(0, "", ".yaml", true)
	verbose := io.ArgToBool(1, true)
	level := io.ArgToString(2, "info")
	logfile := io.ArgToString(3, "")
	alias := io.ArgToString(4, "")

	// message
	if verbose {
		io.PfWhite("\nSoftfem -- soft body simulation with tetrahedral finite elements\n")
		io.Pf("Copyright 2016 The Gofem Authors. All rights reserved.\n")
		io.Pf("Use of this source code is governed by a BSD-style\n")
		io.Pf("license that can be found in the LICENSE file.\n")

		io.Pf("\n%v\n", io.ArgsTable("INPUT ARGUMENTS",
			"scene filename path", "fnamepath", fnamepath,
			"show messages", "verbose", verbose,
			"log level: debug, info, warn, error", "level", level,
			"log file", "logfile", logfile,
			"alias appended to scene key", "alias", alias,
		))
	}

	// logger
	log := logger.New(level, logfile)
	defer log.Sync()

	// scene
	scn, err := inp.ReadScene(fnamepath, alias)
	if err != nil {
		chk.Panic("ReadScene failed:\n%v", err)
	}
	if verbose {
		io.Pf("> Scene %q read: %d bodies, %d frames at %g fps\n", scn.Key, len(scn.Bodies), scn.Nframes(), scn.Data.Fps)
	}

	// bake; interrupt keeps the frames written so far
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	c, err := out.Bake(ctx, scn, log, verbose)
	if err != nil {
		log.Error("bake failed", zap.Error(err))
		chk.Panic("Bake failed:\n%v", err)
	}
	if verbose {
		io.Pfgreen("> %d frames written to %s (%.2f MB)\n", c.Count(), c.Dir, float64(c.Size())/1024/1024)
	}
}
