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
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gitlab.com/tozd/go/errors"
)

// 📁 ensureDir creates dir and its parents. Losing a creation race to another
// branch of the walk is success.
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		if fi, statErr := os.Stat(dir); statErr == nil && fi.IsDir() {
			return nil
		}
		return ioErr("create directory", dir, err)
	}
	return nil
}

// isReadOnly reports whether no write bit is set
func isReadOnly(mode fs.FileMode) bool {
	return mode.Perm()&0o222 == 0
}

// 🔓 clearReadOnly gives the owner write access to path
func clearReadOnly(path string, mode fs.FileMode) error {
	if err := os.Chmod(path, mode.Perm()|0o200); err != nil {
		return errors.WithStack(&PermissionError{Path: path, Err: err})
	}
	return nil
}

// 📋 copyContents writes src to a temp file next to dst and renames it into
// place, so dst is never observed half written. The copy takes the source's
// permission bits and modification time.
func copyContents(src, dst string, srcInfo fs.FileInfo) (uint64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, ioErr("open", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".slimcopy-*")
	if err != nil {
		return 0, ioErr("create temp file for", dst, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmp, in)
	if err != nil {
		return 0, ioErr("copy", src, err)
	}
	if err := tmp.Chmod(srcInfo.Mode().Perm()); err != nil {
		return 0, ioErr("set permissions on", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, ioErr("write", tmpPath, err)
	}
	if err := os.Chtimes(tmpPath, time.Now(), srcInfo.ModTime()); err != nil {
		return 0, ioErr("set times on", tmpPath, err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return 0, ioErr("replace", dst, err)
	}
	committed = true

	return uint64(n), nil
}
