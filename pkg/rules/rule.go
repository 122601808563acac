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
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
)

// 📜 Rule is a single compiled line of an ignore file
type Rule struct {
	Pattern       string // glob with the !, leading / and trailing / markers stripped
	Negated       bool   // re-includes what earlier rules excluded
	Anchored      bool   // must match from the rule set base directory
	DirectoryOnly bool   // only applies to directories
	Line          int    // 1-based line in the source file
}

// 📚 RuleSet is an ordered, immutable list of rules anchored to a base directory
type RuleSet struct {
	base  string
	rules []Rule
}

// 🚨 SyntaxError reports a malformed rule
type SyntaxError struct {
	Line   int
	Text   string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// 🏭 Compile parses ignore-file text into a RuleSet rooted at base.
// No partial rule set is returned on error.
func Compile(text string, base string) (*RuleSet, error) {
	rs := &RuleSet{base: filepath.Clean(base)}

	scanner := bufio.NewScanner(strings.NewReader(strings.TrimPrefix(text, "\ufeff")))
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	line := 0
	for scanner.Scan() {
		line++
		rule, ok, err := parseLine(scanner.Text(), line)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if ok {
			rs.rules = append(rs.rules, rule)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Errorf("scanning rules: %w", err)
	}

	return rs, nil
}

// MustCompile is like Compile but panics on error
func MustCompile(text string, base string) *RuleSet {
	rs, err := Compile(text, base)
	if err != nil {
		panic(err)
	}
	return rs
}

func parseLine(raw string, line int) (Rule, bool, error) {
	text := trimTrailingSpace(strings.TrimLeft(strings.TrimSuffix(raw, "\r"), " \t"))
	if text == "" || text[0] == '#' {
		return Rule{}, false, nil
	}

	rule := Rule{Line: line}
	pattern := text

	switch {
	case strings.HasPrefix(pattern, `\#`), strings.HasPrefix(pattern, `\!`):
		pattern = pattern[1:]
	case pattern[0] == '!':
		rule.Negated = true
		pattern = pattern[1:]
	}

	if strings.HasPrefix(pattern, "/") {
		rule.Anchored = true
		pattern = pattern[1:]
	}

	for strings.HasSuffix(pattern, "/") && countTrailingBackslashes(pattern[:len(pattern)-1])%2 == 0 {
		rule.DirectoryOnly = true
		pattern = pattern[:len(pattern)-1]
	}

	if pattern == "" {
		return Rule{}, false, &SyntaxError{Line: line, Text: raw, Reason: "empty pattern"}
	}
	if countTrailingBackslashes(pattern)%2 == 1 {
		return Rule{}, false, &SyntaxError{Line: line, Text: raw, Reason: "dangling escape"}
	}
	if !doublestar.ValidatePattern(pattern) {
		return Rule{}, false, &SyntaxError{Line: line, Text: raw, Reason: "invalid pattern"}
	}

	rule.Pattern = pattern
	return rule, true, nil
}

// trimTrailingSpace drops trailing blanks unless they are escaped with a backslash
func trimTrailingSpace(s string) string {
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t') {
		if countTrailingBackslashes(s[:len(s)-1])%2 == 1 {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}

func countTrailingBackslashes(s string) int {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n
}

// Base returns the directory the rules are anchored to
func (rs *RuleSet) Base() string {
	return rs.base
}

// WithBase returns a rule set sharing the same rules anchored to base
func (rs *RuleSet) WithBase(base string) *RuleSet {
	return &RuleSet{base: filepath.Clean(base), rules: rs.rules}
}

// Len returns the number of compiled rules
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// Rules returns a copy of the compiled rules in file order
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// String renders a rule back into ignore-file syntax
func (r Rule) String() string {
	var b strings.Builder
	if r.Negated {
		b.WriteByte('!')
	} else if strings.HasPrefix(r.Pattern, "#") || strings.HasPrefix(r.Pattern, "!") {
		b.WriteByte('\\')
	}
	if r.Anchored {
		b.WriteByte('/')
	}
	b.WriteString(r.Pattern)
	if r.DirectoryOnly {
		b.WriteByte('/')
	}
	return b.String()
}
