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

// 📊 Kind identifies what happened to a visited source entry
type Kind int

const (
	KindUnknown        Kind = iota
	KindCopied              // written to the destination
	KindNotModified         // destination already current
	KindSkipped             // excluded by a rule, counted without visiting
	KindSymlinkSkipped      // symbolic link, never followed
)

// String returns a string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindCopied:
		return "copied"
	case KindNotModified:
		return "not modified"
	case KindSkipped:
		return "skipped"
	case KindSymlinkSkipped:
		return "symlink skipped"
	default:
		return "unknown"
	}
}

// 📄 Outcome is the decision made for one leaf of the walk
type Outcome struct {
	Kind  Kind
	Count uint64 // entries covered, more than one for a skipped subtree
	Bytes uint64
}

// Copied records a file written to the destination
func Copied(bytes uint64) Outcome {
	return Outcome{Kind: KindCopied, Count: 1, Bytes: bytes}
}

// NotModified records a file whose destination was already current
func NotModified(bytes uint64) Outcome {
	return Outcome{Kind: KindNotModified, Count: 1, Bytes: bytes}
}

// Skipped records count entries excluded without being visited
func Skipped(count, bytes uint64) Outcome {
	return Outcome{Kind: KindSkipped, Count: count, Bytes: bytes}
}

// SymlinkSkipped records a symbolic link left alone
func SymlinkSkipped() Outcome {
	return Outcome{Kind: KindSymlinkSkipped, Count: 1}
}
