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
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ⚖️ Verdict is the outcome of classifying a path against a RuleSet
type Verdict int

const (
	NotIgnored Verdict = iota
	Ignored
)

func (v Verdict) String() string {
	if v == Ignored {
		return "ignored"
	}
	return "not ignored"
}

// 🔍 Classify evaluates a slash-separated path relative to the rule set base.
// The last matching rule wins; no match means NotIgnored.
//
// Classify looks at the path alone. Callers walking a tree must stop at the
// first ignored directory, which is what keeps negated rules from reaching
// into an excluded directory.
func (rs *RuleSet) Classify(rel string, isDir bool) Verdict {
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	if rel == "" || rel == "." {
		return NotIgnored
	}

	verdict := NotIgnored
	for i := range rs.rules {
		if !rs.rules[i].matches(rel, isDir) {
			continue
		}
		if rs.rules[i].Negated {
			verdict = NotIgnored
		} else {
			verdict = Ignored
		}
	}
	return verdict
}

// 📍 ClassifyPath is Classify for a filesystem path. Paths outside the base
// directory are never ignored.
func (rs *RuleSet) ClassifyPath(path string, isDir bool) Verdict {
	rel, err := filepath.Rel(rs.base, filepath.Clean(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return NotIgnored
	}
	return rs.Classify(rel, isDir)
}

// matches reports whether the rule applies to rel. Unanchored rules are tried
// against every suffix of rel that starts on a segment boundary, so a
// slash-free pattern ends up matching the basename at any depth.
func (r *Rule) matches(rel string, isDir bool) bool {
	if r.DirectoryOnly && !isDir {
		return false
	}

	if r.Anchored {
		return globMatch(r.Pattern, rel)
	}

	for suffix := rel; ; {
		if globMatch(r.Pattern, suffix) {
			return true
		}
		idx := strings.IndexByte(suffix, '/')
		if idx < 0 {
			return false
		}
		suffix = suffix[idx+1:]
	}
}

func globMatch(pattern, name string) bool {
	// patterns are validated at compile time
	ok, _ := doublestar.Match(pattern, name)
	return ok
}
