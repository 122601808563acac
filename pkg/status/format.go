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

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

const progressLabel = "Processing...."

var spinnerFrames = []string{"|", "/", "-", "\\"}

// 📋 String renders the final report with binary size units
func (s RunStatistics) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%6d file(s) copied,      size = %10s\n", s.Copied, humanize.IBytes(s.CopiedBytes))
	fmt.Fprintf(&b, "%6d file(s) not updated, size = %10s\n", s.NotModified, humanize.IBytes(s.NotModifiedBytes))
	fmt.Fprintf(&b, "%6d item(s) skipped,     size = %10s\n", s.Skipped, humanize.IBytes(s.SkippedBytes))
	fmt.Fprintf(&b, "%6d symbolic link(s)", s.Symlinks)
	return b.String()
}

// FormatProgress renders a percentage frame
func FormatProgress(percent int) string {
	return fmt.Sprintf("%s %3d%%", progressLabel, percent)
}

// FormatSpinner renders a rotating frame for runs without a known total
func FormatSpinner(tick int) string {
	return fmt.Sprintf("%s %s", progressLabel, spinnerFrames[tick%len(spinnerFrames)])
}

// FormatDone renders the closing frame
func FormatDone() string {
	return progressLabel + " Done."
}

// FormatAborted renders the closing frame of a failed run
func FormatAborted() string {
	return progressLabel + " Aborted."
}
