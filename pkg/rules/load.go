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

package rules

import (
	"path/filepath"
	"unicode/utf8"

	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// 📂 LoadFile reads an ignore file and compiles it with the file's own
// directory as the rule set base.
func LoadFile(fs afero.Fs, path string) (*RuleSet, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Errorf("resolving ignore file path: %w", err)
	}

	data, err := afero.ReadFile(fs, abs)
	if err != nil {
		return nil, errors.Errorf("reading ignore file: %w", err)
	}

	if !utf8.Valid(data) {
		return nil, errors.Errorf("ignore file %s is not valid UTF-8", abs)
	}

	rs, err := Compile(string(data), filepath.Dir(abs))
	if err != nil {
		return nil, errors.Errorf("compiling %s: %w", abs, err)
	}

	return rs, nil
}
