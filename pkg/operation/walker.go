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

package operation

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/walteh/slimcopy/pkg/info"
	"github.com/walteh/slimcopy/pkg/log"
	"github.com/walteh/slimcopy/pkg/rules"
	"github.com/walteh/slimcopy/pkg/status"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ⏩ Advancer receives completed step counts. It must be safe for concurrent
// use when the walk is parallel.
type Advancer interface {
	Advance(n uint64)
}

type nopAdvancer struct{}

func (nopAdvancer) Advance(uint64) {}

// 🔧 WalkerOptions configures a Walker
type WalkerOptions struct {
	// Source and Destination are absolute directory paths
	Source      string
	Destination string
	// Rules decide which entries are skipped
	Rules *rules.RuleSet
	// Counts sizes skipped subtrees without walking them again
	Counts info.DirCount
	// Force copies even when the destination is not older
	Force bool
	// Parallel fans directories out over Workers goroutines
	Parallel bool
	Workers  int
	// Sink gets one line per decision; muted when nil
	Sink log.Sink
	// Progress is advanced once per regular file, or by a skipped subtree's
	// file count
	Progress Advancer
}

// 🚶 Walker copies a source tree into a destination tree
type Walker struct {
	source      string
	destination string
	rules       *rules.RuleSet
	counts      info.DirCount
	force       bool
	sink        log.Sink
	progress    Advancer
	sem         *semaphore.Weighted
}

// 🏭 NewWalker validates opts and creates a Walker
func NewWalker(opts WalkerOptions) (*Walker, error) {
	if opts.Source == "" || opts.Destination == "" {
		return nil, errors.Errorf("source and destination are required")
	}
	if opts.Rules == nil {
		return nil, errors.Errorf("rules are required")
	}

	w := &Walker{
		source:      filepath.Clean(opts.Source),
		destination: filepath.Clean(opts.Destination),
		rules:       opts.Rules,
		counts:      opts.Counts,
		force:       opts.Force,
		sink:        opts.Sink,
		progress:    opts.Progress,
	}
	if w.counts == nil {
		w.counts = info.DirCount{}
	}
	if w.sink == nil {
		w.sink = log.Muted(context.Background())
	}
	if w.progress == nil {
		w.progress = nopAdvancer{}
	}
	if opts.Parallel {
		workers := opts.Workers
		if workers <= 0 {
			workers = runtime.GOMAXPROCS(0)
		}
		w.sem = semaphore.NewWeighted(int64(workers))
	}

	return w, nil
}

// 🏃 Run walks the whole source tree and returns the aggregate. The first
// error aborts the run; nothing is retried.
func (w *Walker) Run(ctx context.Context) (status.RunStatistics, error) {
	fi, err := os.Stat(w.source)
	if err != nil {
		return status.RunStatistics{}, ioErr("read metadata of", w.source, err)
	}
	if !fi.IsDir() {
		return status.RunStatistics{}, ioErr("walk", w.source, errors.New("not a directory"))
	}

	stats, err := w.walkDir(ctx, w.source)
	if err != nil {
		return status.RunStatistics{}, err
	}

	zerolog.Ctx(ctx).Debug().
		Uint64("copied", stats.Copied).
		Uint64("not_modified", stats.NotModified).
		Uint64("skipped", stats.Skipped).
		Uint64("symlinks", stats.Symlinks).
		Msg("walk complete")

	return stats, nil
}

// visit decides what to do with one entry. mode carries Lstat type bits, so
// symbolic links are seen as links.
func (w *Walker) visit(ctx context.Context, path string, mode fs.FileMode) (status.RunStatistics, error) {
	if err := ctx.Err(); err != nil {
		return status.RunStatistics{}, err
	}

	if w.rules.ClassifyPath(path, mode.IsDir()) == rules.Ignored {
		return w.skip(ctx, path, mode)
	}

	switch {
	case mode&fs.ModeSymlink != 0:
		w.sink.Add(`Skip symbolic link "` + path + `"`)
		return status.FromOutcome(status.SymlinkSkipped()), nil
	case mode.IsDir():
		return w.walkDir(ctx, path)
	case mode.IsRegular():
		o, err := w.copyFile(path)
		if err != nil {
			return status.RunStatistics{}, err
		}
		w.progress.Advance(1)
		return status.FromOutcome(o), nil
	default:
		w.sink.Add("Skip special file " + path)
		return status.FromOutcome(status.Skipped(1, 0)), nil
	}
}

// skip accounts for an ignored entry without descending into it
func (w *Walker) skip(ctx context.Context, path string, mode fs.FileMode) (status.RunStatistics, error) {
	w.sink.Add("Skip " + path)

	switch {
	case mode.IsDir():
		entry, ok := w.counts.Lookup(path)
		if !ok {
			zerolog.Ctx(ctx).Debug().Str("path", path).Msg("no pre-pass entry for skipped directory")
		}
		w.progress.Advance(entry.Files)
		return status.FromOutcome(status.Skipped(entry.Files, entry.Bytes)), nil
	case mode.IsRegular():
		fi, err := os.Lstat(path)
		if err != nil {
			return status.RunStatistics{}, ioErr("read metadata of", path, err)
		}
		w.progress.Advance(1)
		return status.FromOutcome(status.Skipped(1, uint64(fi.Size()))), nil
	default:
		return status.FromOutcome(status.Skipped(1, 0)), nil
	}
}

// walkDir visits every child of dir and merges their tallies
func (w *Walker) walkDir(ctx context.Context, dir string) (status.RunStatistics, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return status.RunStatistics{}, ioErr("read directory", dir, err)
	}

	if w.sem == nil {
		var total status.RunStatistics
		for _, entry := range entries {
			s, err := w.visit(ctx, filepath.Join(dir, entry.Name()), entry.Type())
			if err != nil {
				return status.RunStatistics{}, err
			}
			total = total.Merge(s)
		}
		return total, nil
	}

	results := make([]status.RunStatistics, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	for i, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		mode := entry.Type()

		// only directories are worth a goroutine; when every worker is busy
		// the child runs inline instead of waiting for a slot
		if mode.IsDir() && w.sem.TryAcquire(1) {
			g.Go(func() error {
				defer w.sem.Release(1)
				s, err := w.visit(gctx, path, mode)
				results[i] = s
				return err
			})
			continue
		}

		s, err := w.visit(gctx, path, mode)
		if err != nil {
			if werr := g.Wait(); werr != nil {
				return status.RunStatistics{}, werr
			}
			return status.RunStatistics{}, err
		}
		results[i] = s
	}
	if err := g.Wait(); err != nil {
		return status.RunStatistics{}, err
	}

	return status.Sum(results...), nil
}

// 📄 copyFile applies the newer-than rule to one regular file
func (w *Walker) copyFile(src string) (status.Outcome, error) {
	srcInfo, err := os.Lstat(src)
	if err != nil {
		return status.Outcome{}, ioErr("read metadata of", src, err)
	}
	size := uint64(srcInfo.Size())

	rel, err := filepath.Rel(w.source, src)
	if err != nil {
		return status.Outcome{}, ioErr("resolve", src, err)
	}
	dst := filepath.Join(w.destination, rel)

	dstInfo, err := os.Stat(dst)
	switch {
	case err == nil:
		if dstInfo.IsDir() {
			return status.Outcome{}, ioErr("copy", src, errors.Errorf("destination %s is a directory", dst))
		}
		if !w.force && !srcInfo.ModTime().After(dstInfo.ModTime()) {
			w.sink.Add("Old " + src)
			return status.NotModified(size), nil
		}
		if isReadOnly(dstInfo.Mode()) {
			if err := clearReadOnly(dst, dstInfo.Mode()); err != nil {
				return status.Outcome{}, err
			}
		}
	case errors.Is(err, fs.ErrNotExist):
		if err := ensureDir(filepath.Dir(dst)); err != nil {
			return status.Outcome{}, err
		}
	default:
		return status.Outcome{}, ioErr("read metadata of", dst, err)
	}

	w.sink.Add("Copy " + src)
	n, err := copyContents(src, dst, srcInfo)
	if err != nil {
		return status.Outcome{}, err
	}
	return status.Copied(n), nil
}
