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
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/slimcopy/pkg/info"
	"github.com/walteh/slimcopy/pkg/rules"
	"github.com/walteh/slimcopy/pkg/status"
	"gitlab.com/tozd/go/errors"
)

type recordingSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *recordingSink) Add(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, msg)
}

func (s *recordingSink) contains(substr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

type countingAdvancer struct {
	n atomic.Uint64
}

func (c *countingAdvancer) Advance(n uint64) {
	c.n.Add(n)
}

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

// 🧪 writeTree creates files (with content) under root
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func setMtime(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

type testEnv struct {
	src  string
	dst  string
	sink *recordingSink
	prog *countingAdvancer
}

func newTestEnv(t *testing.T, files map[string]string) *testEnv {
	tmp := t.TempDir()
	env := &testEnv{
		src:  filepath.Join(tmp, "src"),
		dst:  filepath.Join(tmp, "dst"),
		sink: &recordingSink{},
		prog: &countingAdvancer{},
	}
	require.NoError(t, os.MkdirAll(env.src, 0o755))
	require.NoError(t, os.MkdirAll(env.dst, 0o755))
	writeTree(t, env.src, files)
	return env
}

func (e *testEnv) run(t *testing.T, ruleText string, mutate func(*WalkerOptions)) (status.RunStatistics, error) {
	t.Helper()
	ctx := testContext(t)

	counts, err := info.Collect(ctx, e.src, info.WithSizes(true))
	require.NoError(t, err, "collecting")

	opts := WalkerOptions{
		Source:      e.src,
		Destination: e.dst,
		Rules:       rules.MustCompile(ruleText, e.src),
		Counts:      counts,
		Sink:        e.sink,
		Progress:    e.prog,
	}
	if mutate != nil {
		mutate(&opts)
	}

	w, err := NewWalker(opts)
	require.NoError(t, err, "creating walker")
	return w.Run(ctx)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestWalkCopiesTree(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"a.txt":          "aaa",
		"sub/b.txt":      "bb",
		"sub/deep/c.txt": "c",
	})

	stats, err := env.run(t, "", nil)
	require.NoError(t, err)

	assert.Equal(t, status.RunStatistics{Copied: 3, CopiedBytes: 6}, stats)
	assert.Equal(t, "aaa", readFile(t, filepath.Join(env.dst, "a.txt")))
	assert.Equal(t, "c", readFile(t, filepath.Join(env.dst, "sub", "deep", "c.txt")))
	assert.Equal(t, uint64(3), env.prog.n.Load(), "one step per file")
	assert.True(t, env.sink.contains("Copy "+filepath.Join(env.src, "a.txt")))

	srcInfo, err := os.Stat(filepath.Join(env.src, "a.txt"))
	require.NoError(t, err)
	dstInfo, err := os.Stat(filepath.Join(env.dst, "a.txt"))
	require.NoError(t, err)
	assert.True(t, srcInfo.ModTime().Equal(dstInfo.ModTime()), "copy keeps the source mtime")
}

func TestWalkIdempotent(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"a.txt":     "aaa",
		"sub/b.txt": "bb",
	})

	first, err := env.run(t, "", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), first.Copied)

	second, err := env.run(t, "", nil)
	require.NoError(t, err)
	assert.Equal(t, status.RunStatistics{NotModified: 2, NotModifiedBytes: 5}, second, "second run copies nothing")
	assert.True(t, env.sink.contains("Old "+filepath.Join(env.src, "a.txt")))
}

func TestWalkNewerOnly(t *testing.T) {
	now := time.Now().Truncate(time.Second)

	tests := []struct {
		name     string
		srcTime  time.Time
		dstTime  time.Time
		force    bool
		wantKind status.Kind
		want     string
	}{
		{name: "source_newer", srcTime: now, dstTime: now.Add(-time.Hour), wantKind: status.KindCopied, want: "new"},
		{name: "destination_newer", srcTime: now.Add(-time.Hour), dstTime: now, wantKind: status.KindNotModified, want: "old"},
		{name: "tie_does_not_copy", srcTime: now, dstTime: now, wantKind: status.KindNotModified, want: "old"},
		{name: "force_overrides_mtime", srcTime: now.Add(-time.Hour), dstTime: now, force: true, wantKind: status.KindCopied, want: "new"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, map[string]string{"f.txt": "new"})
			writeTree(t, env.dst, map[string]string{"f.txt": "old"})
			setMtime(t, filepath.Join(env.src, "f.txt"), tt.srcTime)
			setMtime(t, filepath.Join(env.dst, "f.txt"), tt.dstTime)

			stats, err := env.run(t, "", func(o *WalkerOptions) { o.Force = tt.force })
			require.NoError(t, err)

			assert.Equal(t, status.FromOutcome(status.Outcome{Kind: tt.wantKind, Count: 1, Bytes: 3}), stats)
			assert.Equal(t, tt.want, readFile(t, filepath.Join(env.dst, "f.txt")))
		})
	}
}

func TestWalkClearsReadOnly(t *testing.T) {
	env := newTestEnv(t, map[string]string{"f.txt": "fresh"})
	dst := filepath.Join(env.dst, "f.txt")
	writeTree(t, env.dst, map[string]string{"f.txt": "stale"})
	setMtime(t, dst, time.Now().Add(-time.Hour))
	require.NoError(t, os.Chmod(dst, 0o444))

	stats, err := env.run(t, "", nil)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), stats.Copied)
	assert.Equal(t, "fresh", readFile(t, dst))
	fi, err := os.Stat(dst)
	require.NoError(t, err)
	assert.NotZero(t, fi.Mode().Perm()&0o200, "destination should be writable")
}

func TestWalkSymlink(t *testing.T) {
	env := newTestEnv(t, map[string]string{"real.txt": "x"})
	require.NoError(t, os.Symlink(filepath.Join(env.src, "real.txt"), filepath.Join(env.src, "link.txt")))
	require.NoError(t, os.Symlink(env.src, filepath.Join(env.src, "loop")))

	stats, err := env.run(t, "", nil)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), stats.Symlinks)
	assert.Equal(t, uint64(1), stats.Copied)
	_, err = os.Lstat(filepath.Join(env.dst, "link.txt"))
	assert.True(t, os.IsNotExist(err), "links are not recreated")
	_, err = os.Lstat(filepath.Join(env.dst, "loop"))
	assert.True(t, os.IsNotExist(err), "directory links are not followed")
	assert.True(t, env.sink.contains(`Skip symbolic link "`+filepath.Join(env.src, "link.txt")+`"`))
}

func TestWalkDirectoryShortCircuit(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"keep.txt":             "k",
		"temp/deep/secret.txt": "secret",
		"temp/other.txt":       "oo",
	})

	stats, err := env.run(t, "temp/\n!temp/deep/secret.txt", nil)
	require.NoError(t, err)

	assert.Equal(t, status.RunStatistics{Copied: 1, CopiedBytes: 1, Skipped: 2, SkippedBytes: 8}, stats, "subtree counted from the pre-pass")
	_, err = os.Stat(filepath.Join(env.dst, "temp"))
	assert.True(t, os.IsNotExist(err), "no temp subtree at the destination")
	assert.False(t, env.sink.contains("secret.txt"), "excluded subtree is never visited")
	assert.True(t, env.sink.contains("Skip "+filepath.Join(env.src, "temp")))
	assert.Equal(t, uint64(3), env.prog.n.Load(), "skipped subtree advances progress by its file count")
}

func TestWalkMixedTree(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"a.tmp":     "aaaa",
		"keep.tmp":  "kk",
		"sub/b.txt": "b",
	})

	stats, err := env.run(t, "*.tmp\n!keep.tmp", nil)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), stats.Copied, "keep.tmp and sub/b.txt")
	assert.Equal(t, uint64(1), stats.Skipped)
	assert.Equal(t, uint64(4), stats.SkippedBytes)
	assert.FileExists(t, filepath.Join(env.dst, "keep.tmp"))
	assert.FileExists(t, filepath.Join(env.dst, "sub", "b.txt"))
	assert.NoFileExists(t, filepath.Join(env.dst, "a.tmp"))
}

func TestWalkParallelMatchesSequential(t *testing.T) {
	files := map[string]string{}
	for _, dir := range []string{"a", "a/x", "a/x/y", "b", "c", "c/z"} {
		for _, name := range []string{"1.txt", "2.log", "3.txt"} {
			files[dir+"/"+name] = dir + name
		}
	}
	files["root.txt"] = "r"
	const ruleText = "*.log\n/c/z/"

	seqEnv := newTestEnv(t, files)
	seq, err := seqEnv.run(t, ruleText, nil)
	require.NoError(t, err)

	parEnv := newTestEnv(t, files)
	par, err := parEnv.run(t, ruleText, func(o *WalkerOptions) {
		o.Parallel = true
		o.Workers = 3
	})
	require.NoError(t, err)

	assert.Equal(t, seq, par, "parallel walk folds to the same tally")
	assert.Equal(t, seqEnv.prog.n.Load(), parEnv.prog.n.Load())

	// the same tally from walking each top level subtree on its own
	var parts []status.RunStatistics
	for _, dir := range []string{"a", "b", "c"} {
		sub := newTestEnv(t, nil)
		sub.src = filepath.Join(seqEnv.src, dir)
		counts, err := info.Collect(testContext(t), sub.src)
		require.NoError(t, err)
		w, err := NewWalker(WalkerOptions{
			Source:      sub.src,
			Destination: sub.dst,
			Rules:       rules.MustCompile(ruleText, seqEnv.src),
			Counts:      counts,
		})
		require.NoError(t, err)
		s, err := w.Run(testContext(t))
		require.NoError(t, err)
		parts = append(parts, s)
	}
	parts = append(parts, status.FromOutcome(status.Copied(1)))

	whole := status.Sum(parts...)
	assert.Equal(t, seq.Copied, whole.Copied)
	assert.Equal(t, seq.Skipped, whole.Skipped)
	assert.Equal(t, seq.CopiedBytes, whole.CopiedBytes)
}

func TestWalkErrors(t *testing.T) {
	t.Run("destination_is_directory", func(t *testing.T) {
		env := newTestEnv(t, map[string]string{"f.txt": "x"})
		require.NoError(t, os.MkdirAll(filepath.Join(env.dst, "f.txt"), 0o755))

		_, err := env.run(t, "", nil)
		require.Error(t, err)
		var ioErr *IOError
		require.True(t, errors.As(err, &ioErr), "should be an IOError: %v", err)
		assert.Equal(t, filepath.Join(env.src, "f.txt"), ioErr.Path)
	})

	t.Run("parent_blocked_by_file", func(t *testing.T) {
		env := newTestEnv(t, map[string]string{"sub/f.txt": "x"})
		writeTree(t, env.dst, map[string]string{"sub": "not a dir"})

		_, err := env.run(t, "", func(o *WalkerOptions) { o.Parallel = true })
		require.Error(t, err)
		var ioErr *IOError
		require.True(t, errors.As(err, &ioErr), "should be an IOError: %v", err)
	})

	t.Run("missing_source", func(t *testing.T) {
		w, err := NewWalker(WalkerOptions{
			Source:      filepath.Join(t.TempDir(), "nope"),
			Destination: t.TempDir(),
			Rules:       rules.MustCompile("", "/"),
		})
		require.NoError(t, err)
		_, err = w.Run(testContext(t))
		require.Error(t, err)
	})

	t.Run("required_options", func(t *testing.T) {
		_, err := NewWalker(WalkerOptions{Source: "/a", Destination: "/b"})
		assert.Error(t, err, "rules are required")
		_, err = NewWalker(WalkerOptions{Rules: rules.MustCompile("", "/")})
		assert.Error(t, err, "paths are required")
	})
}

func TestEnsureDirConcurrent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = ensureDir(dir)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err, "already exists is success")
	}
	assert.DirExists(t, dir)
}
