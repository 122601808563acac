// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package info

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// 📦 Entry totals one directory subtree
type Entry struct {
	Files uint64
	Bytes uint64 // zero unless sizes were measured
}

// Add sums two entries
func (e Entry) Add(o Entry) Entry {
	return Entry{Files: e.Files + o.Files, Bytes: e.Bytes + o.Bytes}
}

// 🗺️ DirCount maps an absolute directory path to the totals of its whole
// subtree. It is built once and only read afterwards.
type DirCount map[string]Entry

// Lookup returns the totals recorded for dir
func (d DirCount) Lookup(dir string) (Entry, bool) {
	e, ok := d[filepath.Clean(dir)]
	return e, ok
}

// 🔍 Collector walks a tree once, fanning subdirectories out to a bounded
// number of goroutines
type Collector struct {
	workers      int
	measureSizes bool
}

// Option configures a Collector
type Option func(*Collector)

// WithWorkers bounds the number of extra goroutines. Values below one mean
// the walk runs on the calling goroutine only.
func WithWorkers(n int) Option {
	return func(c *Collector) { c.workers = n }
}

// WithSizes also sums regular file sizes
func WithSizes(enabled bool) Option {
	return func(c *Collector) { c.measureSizes = enabled }
}

// 🏭 NewCollector creates a collector sized to the available parallelism
func NewCollector(opts ...Option) *Collector {
	c := &Collector{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect is a shortcut for NewCollector(opts...).Collect
func Collect(ctx context.Context, root string, opts ...Option) (DirCount, error) {
	return NewCollector(opts...).Collect(ctx, root)
}

type walk struct {
	sem          *semaphore.Weighted
	measureSizes bool
}

type subtree struct {
	counts DirCount
	total  Entry
}

// merge folds two disjoint subtrees; key sets never overlap so the union is
// order independent
func (s subtree) merge(o subtree) subtree {
	if len(s.counts) < len(o.counts) {
		s, o = o, s
	}
	for k, v := range o.counts {
		s.counts[k] = v
	}
	s.total = s.total.Add(o.total)
	return s
}

// 📊 Collect counts regular files below root. Symbolic links are not
// followed and count for nothing. The first unreadable directory aborts the
// whole collection.
func (c *Collector) Collect(ctx context.Context, root string) (DirCount, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Errorf("resolving root: %w", err)
	}

	w := &walk{measureSizes: c.measureSizes}
	if c.workers > 0 {
		w.sem = semaphore.NewWeighted(int64(c.workers))
	}

	res, err := w.collect(ctx, abs)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("root", abs).
		Int("directories", len(res.counts)).
		Uint64("files", res.total.Files).
		Msg("collected tree info")

	return res.counts, nil
}

func (w *walk) collect(ctx context.Context, dir string) (subtree, error) {
	if err := ctx.Err(); err != nil {
		return subtree{}, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return subtree{}, errors.Errorf("reading directory %s: %w", dir, err)
	}

	own := Entry{}
	var subdirs []string
	for _, entry := range entries {
		mode := entry.Type()
		switch {
		case mode.IsDir():
			subdirs = append(subdirs, filepath.Join(dir, entry.Name()))
		case mode.IsRegular():
			own.Files++
			if w.measureSizes {
				fi, err := entry.Info()
				if err != nil {
					return subtree{}, errors.Errorf("reading metadata of %s: %w", filepath.Join(dir, entry.Name()), err)
				}
				own.Bytes += uint64(fi.Size())
			}
		}
	}

	results := make([]subtree, len(subdirs))
	g, gctx := errgroup.WithContext(ctx)
	for i, sub := range subdirs {
		// run inline when every worker is busy so a parent never blocks
		// waiting for a slot held by its own ancestors
		if w.sem != nil && w.sem.TryAcquire(1) {
			g.Go(func() error {
				defer w.sem.Release(1)
				r, err := w.collect(gctx, sub)
				results[i] = r
				return err
			})
			continue
		}

		r, err := w.collect(gctx, sub)
		if err != nil {
			if werr := g.Wait(); werr != nil {
				return subtree{}, werr
			}
			return subtree{}, err
		}
		results[i] = r
	}
	if err := g.Wait(); err != nil {
		return subtree{}, err
	}

	out := subtree{counts: DirCount{}, total: own}
	for _, r := range results {
		out = out.merge(r)
	}
	out.counts[dir] = out.total

	return out, nil
}
