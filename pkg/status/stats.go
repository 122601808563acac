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

package status

// 📈 RunStatistics tallies outcomes. The zero value is the identity of Merge,
// and Merge is associative and commutative, so partial results can be folded
// in any order or grouping.
type RunStatistics struct {
	Copied           uint64
	CopiedBytes      uint64
	NotModified      uint64
	NotModifiedBytes uint64
	Skipped          uint64
	SkippedBytes     uint64
	Symlinks         uint64
}

// 🔀 Merge adds two tallies field by field
func (s RunStatistics) Merge(o RunStatistics) RunStatistics {
	return RunStatistics{
		Copied:           s.Copied + o.Copied,
		CopiedBytes:      s.CopiedBytes + o.CopiedBytes,
		NotModified:      s.NotModified + o.NotModified,
		NotModifiedBytes: s.NotModifiedBytes + o.NotModifiedBytes,
		Skipped:          s.Skipped + o.Skipped,
		SkippedBytes:     s.SkippedBytes + o.SkippedBytes,
		Symlinks:         s.Symlinks + o.Symlinks,
	}
}

// Record folds a single outcome into the tally
func (s RunStatistics) Record(o Outcome) RunStatistics {
	return s.Merge(FromOutcome(o))
}

// IsZero reports whether nothing has been recorded
func (s RunStatistics) IsZero() bool {
	return s == RunStatistics{}
}

// Total returns the number of entries accounted for
func (s RunStatistics) Total() uint64 {
	return s.Copied + s.NotModified + s.Skipped + s.Symlinks
}

// FromOutcome lifts an outcome into a tally
func FromOutcome(o Outcome) RunStatistics {
	switch o.Kind {
	case KindCopied:
		return RunStatistics{Copied: o.Count, CopiedBytes: o.Bytes}
	case KindNotModified:
		return RunStatistics{NotModified: o.Count, NotModifiedBytes: o.Bytes}
	case KindSkipped:
		return RunStatistics{Skipped: o.Count, SkippedBytes: o.Bytes}
	case KindSymlinkSkipped:
		return RunStatistics{Symlinks: o.Count}
	default:
		return RunStatistics{}
	}
}

// Sum folds any number of tallies starting from the identity
func Sum(all ...RunStatistics) RunStatistics {
	var total RunStatistics
	for _, s := range all {
		total = total.Merge(s)
	}
	return total
}
