// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package out implements the frame cache: per-body frame files and a summary
package out

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/go-gl/mathgl/mgl64"
)

// InfoFile is the name of the summary file in a cache directory
const InfoFile = "cache_info.json"

// Frame holds the state of one body at one frame
type Frame struct {
	Frame      int          `json:"frame"`      // frame number
	T          float64      `json:"t"`          // time
	Positions  []mgl64.Vec3 `json:"positions"`  // [nverts] positions
	Velocities []mgl64.Vec3 `json:"velocities"` // [nverts] velocities
}

// BodyInfo holds cached data of one body
type BodyInfo struct {
	Nverts int `json:"nverts"` // number of vertices
	Ntets  int `json:"ntets"`  // number of tetrahedra
}

// Info holds the summary of a cache
type Info struct {
	Key        string               `json:"key"`         // scene key
	Encoder    string               `json:"encoder"`     // encoder of frame files
	FrameStart int                  `json:"frame_start"` // first frame
	FrameEnd   int                  `json:"frame_end"`   // last frame
	Fps        float64              `json:"fps"`         // frames per second
	Baked      bool                 `json:"baked"`       // all frames were written
	Bodies     map[string]*BodyInfo `json:"bodies"`      // body name => data
}

// Cache reads and writes frames in a directory
//   <dir>/cache_info.json
//   <dir>/<body>/frame_0001.gob
type Cache struct {
	Dir     string // cache directory
	EncType string // "gob" or "json"
	Info    Info   // summary
}

// NewCache returns a new cache; the directory is created when the first file is written
func NewCache(dir, enctype string) (o *Cache) {
	if enctype != "json" {
		enctype = "gob"
	}
	o = &Cache{Dir: dir, EncType: enctype}
	o.Info.Encoder = enctype
	o.Info.Bodies = make(map[string]*BodyInfo)
	return
}

// OpenCache reads the summary of an existing cache
func OpenCache(dir string) (o *Cache, err error) {
	b, err := io.ReadFile(filepath.Join(dir, InfoFile))
	if err != nil {
		return nil, chk.Err("cannot read cache summary in %q:\n%v", dir, err)
	}
	o = NewCache(dir, "")
	err = json.Unmarshal(b, &o.Info)
	if err != nil {
		return nil, chk.Err("cannot unmarshal cache summary in %q:\n%v", dir, err)
	}
	o.EncType = o.Info.Encoder
	if o.EncType != "json" {
		o.EncType = "gob"
	}
	return
}

// FramePath returns the path of a frame file
func (o *Cache) FramePath(body string, frame int) string {
	return filepath.Join(o.Dir, body, io.Sf("frame_%04d.%s", frame, extension(o.EncType)))
}

// WriteFrame writes the frame of a body
func (o *Cache) WriteFrame(body string, fr *Frame) (err error) {
	if body == "" {
		return chk.Err("body name must not be empty")
	}
	err = os.MkdirAll(filepath.Join(o.Dir, body), 0777)
	if err != nil {
		return chk.Err("cannot create cache directory:\n%v", err)
	}
	fn := o.FramePath(body, fr.Frame)
	fil, err := os.Create(fn)
	if err != nil {
		return chk.Err("cannot create frame file %q:\n%v", fn, err)
	}
	defer func() {
		if e := fil.Close(); e != nil && err == nil {
			err = chk.Err("cannot close frame file %q:\n%v", fn, e)
		}
	}()
	w := bufio.NewWriter(fil)
	err = GetEncoder(w, o.EncType).Encode(fr)
	if err != nil {
		return chk.Err("cannot encode frame %d of %q:\n%v", fr.Frame, body, err)
	}
	return w.Flush()
}

// ReadFrame reads the frame of a body
func (o *Cache) ReadFrame(body string, frame int) (fr *Frame, err error) {
	fn := o.FramePath(body, frame)
	fil, err := os.Open(fn)
	if err != nil {
		return nil, chk.Err("cannot open frame file %q:\n%v", fn, err)
	}
	defer fil.Close()
	fr = new(Frame)
	err = GetDecoder(bufio.NewReader(fil), o.EncType).Decode(fr)
	if err != nil {
		return nil, chk.Err("cannot decode frame file %q:\n%v", fn, err)
	}
	return
}

// WriteInfo writes the summary
func (o *Cache) WriteInfo() (err error) {
	err = os.MkdirAll(o.Dir, 0777)
	if err != nil {
		return chk.Err("cannot create cache directory:\n%v", err)
	}
	b, err := json.MarshalIndent(&o.Info, "", "  ")
	if err != nil {
		return chk.Err("cannot marshal cache summary:\n%v", err)
	}
	return os.WriteFile(filepath.Join(o.Dir, InfoFile), b, 0644)
}

// Frames returns the sorted frame numbers cached for a body
func (o *Cache) Frames(body string) (frames []int) {
	pattern := filepath.Join(o.Dir, body, "frame_*."+extension(o.EncType))
	files, _ := filepath.Glob(pattern)
	for _, fn := range files {
		var n int
		_, err := fmt.Sscanf(filepath.Base(fn), "frame_%d.", &n)
		if err == nil {
			frames = append(frames, n)
		}
	}
	sort.Ints(frames)
	return
}

// Count returns the number of cached frames of all bodies
func (o *Cache) Count() (n int) {
	for name := range o.Info.Bodies {
		n += len(o.Frames(name))
	}
	return
}

// Validate checks that all frames in the summary range exist for all bodies and that
// the first and last frames have the number of vertices in the summary
func (o *Cache) Validate() (err error) {
	if len(o.Info.Bodies) == 0 {
		return chk.Err("cache in %q has no bodies", o.Dir)
	}
	for _, name := range o.BodyNames() {
		have := make(map[int]bool)
		for _, f := range o.Frames(name) {
			have[f] = true
		}
		var missing []int
		for f := o.Info.FrameStart; f <= o.Info.FrameEnd; f++ {
			if !have[f] {
				missing = append(missing, f)
			}
		}
		if len(missing) > 0 {
			return chk.Err("body %q misses %d frames: %v", name, len(missing), missing)
		}
		for _, f := range []int{o.Info.FrameStart, o.Info.FrameEnd} {
			fr, e := o.ReadFrame(name, f)
			if e != nil {
				return e
			}
			if len(fr.Positions) != o.Info.Bodies[name].Nverts {
				return chk.Err("frame %d of %q has %d vertices; %d expected", f, name, len(fr.Positions), o.Info.Bodies[name].Nverts)
			}
		}
	}
	return
}

// Clear removes all frame files and the summary; other files are kept
func (o *Cache) Clear() (err error) {
	for name := range o.Info.Bodies {
		for _, f := range o.Frames(name) {
			err = os.Remove(o.FramePath(name, f))
			if err != nil {
				return chk.Err("cannot remove frame %d of %q:\n%v", f, name, err)
			}
		}
		os.Remove(filepath.Join(o.Dir, name)) // only succeeds if empty
	}
	err = os.Remove(filepath.Join(o.Dir, InfoFile))
	if err != nil && !os.IsNotExist(err) {
		return chk.Err("cannot remove cache summary:\n%v", err)
	}
	o.Info.Baked = false
	return nil
}

// Size returns the total size of frame files in bytes
func (o *Cache) Size() (nbytes int64) {
	for name := range o.Info.Bodies {
		for _, f := range o.Frames(name) {
			if st, err := os.Stat(o.FramePath(name, f)); err == nil {
				nbytes += st.Size()
			}
		}
	}
	return
}

// BodyNames returns the sorted names of all bodies
func (o *Cache) BodyNames() (names []string) {
	for name := range o.Info.Bodies {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}
