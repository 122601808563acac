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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// DefaultIgnoreFileName is looked up inside the source root when no ignore
// file is given
const DefaultIgnoreFileName = ".slimcopy_rules"

// 📚 Options is everything a run needs
type Options struct {
	Source         string `json:"source" yaml:"source" hcl:"source,optional"`
	Destination    string `json:"destination" yaml:"destination" hcl:"destination,optional"`
	IgnoreFile     string `json:"ignore_file,omitempty" yaml:"ignore_file,omitempty" hcl:"ignore_file,optional"`
	LogFile        string `json:"log_file,omitempty" yaml:"log_file,omitempty" hcl:"log_file,optional"`
	Force          bool   `json:"force,omitempty" yaml:"force,omitempty" hcl:"force,optional"`
	Parallel       bool   `json:"parallel,omitempty" yaml:"parallel,omitempty" hcl:"parallel,optional"`
	MeasureSkipped bool   `json:"measure_skipped,omitempty" yaml:"measure_skipped,omitempty" hcl:"measure_skipped,optional"`
	Quiet          bool   `json:"quiet,omitempty" yaml:"quiet,omitempty" hcl:"quiet,optional"`
}

// 🚨 ConfigurationError reports an unusable option, before any traversal
type ConfigurationError struct {
	Field  string
	Path   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", e.Field, e.Path, e.Reason)
}

func configErr(field, path, reason string) error {
	return errors.WithStack(&ConfigurationError{Field: field, Path: path, Reason: reason})
}

// 🔍 Validate normalizes paths in place and checks them:
//   - source must exist and be a directory
//   - destination is created when missing, as long as its parent exists
//   - ignore file defaults to DefaultIgnoreFileName inside source and must be
//     a regular file
func Validate(ctx context.Context, fs afero.Fs, o *Options) error {
	logger := zerolog.Ctx(ctx)

	var err error
	if o.Source, err = normalizePath("source", o.Source); err != nil {
		return err
	}
	if o.Source == "" {
		return configErr("source", "", "is required")
	}
	if err := requireDir(fs, "source", o.Source); err != nil {
		return err
	}

	if o.Destination, err = normalizePath("destination", o.Destination); err != nil {
		return err
	}
	if o.Destination == "" {
		return configErr("destination", "", "is required")
	}
	if isWithin(o.Source, o.Destination) {
		return configErr("destination", o.Destination, "must not be inside the source directory")
	}
	if err := ensureDestination(ctx, fs, o.Destination); err != nil {
		return err
	}

	if o.IgnoreFile == "" {
		o.IgnoreFile = filepath.Join(o.Source, DefaultIgnoreFileName)
	} else if o.IgnoreFile, err = normalizePath("ignore_file", o.IgnoreFile); err != nil {
		return err
	}
	fi, err := fs.Stat(o.IgnoreFile)
	if err != nil || !fi.Mode().IsRegular() {
		return configErr("ignore_file", o.IgnoreFile, "does not exist or is not a regular file")
	}

	if o.LogFile, err = normalizePath("log_file", o.LogFile); err != nil {
		return err
	}

	logger.Debug().
		Str("source", o.Source).
		Str("destination", o.Destination).
		Str("ignore_file", o.IgnoreFile).
		Bool("force", o.Force).
		Bool("parallel", o.Parallel).
		Msg("validated options")

	return nil
}

// normalizePath expands ~ and makes path absolute; empty stays empty
func normalizePath(field, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", configErr(field, path, err.Error())
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", configErr(field, path, err.Error())
	}
	return abs, nil
}

func requireDir(fs afero.Fs, field, path string) error {
	fi, err := fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return configErr(field, path, "does not exist")
		}
		return configErr(field, path, err.Error())
	}
	if !fi.IsDir() {
		return configErr(field, path, "must be a directory")
	}
	return nil
}

// ensureDestination creates the destination directory when only its last
// element is missing
func ensureDestination(ctx context.Context, fs afero.Fs, dest string) error {
	fi, err := fs.Stat(dest)
	if err == nil {
		if !fi.IsDir() {
			return configErr("destination", dest, "must be a directory")
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return configErr("destination", dest, err.Error())
	}

	if err := requireDir(fs, "destination", filepath.Dir(dest)); err != nil {
		return configErr("destination", dest, "does not exist and neither does its parent")
	}
	if err := fs.Mkdir(dest, 0o755); err != nil && !os.IsExist(err) {
		return errors.Errorf("creating destination directory %q: %w", dest, err)
	}

	zerolog.Ctx(ctx).Debug().Str("destination", dest).Msg("created destination directory")
	return nil
}

// isWithin reports whether path equals root or lies below it
func isWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// 📝 String returns a one line description of the run
func (o *Options) String() string {
	mode := "newer only"
	if o.Force {
		mode = "forced"
	}
	return fmt.Sprintf("%s -> %s (%s, rules: %s)", o.Source, o.Destination, mode, o.IgnoreFile)
}
