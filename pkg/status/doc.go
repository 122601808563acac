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

/*
Package status tallies what a run did and shows how far along it is.

	+-------------+      +---------------+
	|   Outcome   | ---> | RunStatistics |
	| (one leaf)  |      |   (monoid)    |
	+-------------+      +-------+-------+
	                             |
	                     +-------+-------+
	                     |    Summary    |
	                     |  (String())   |
	                     +---------------+

	+-------------+      +---------------+
	|  Progress   | ---> |    Display    |
	| (counters)  |      | (pterm area)  |
	+-------------+      +---------------+

🎯 Purpose:
- Classify each visited entry as copied, not modified, skipped or symlink
- Fold per-branch tallies in any order with Merge and Sum
- Throttle progress redraws to percentage changes or a fixed interval

🔍 Example:

	p := status.NewProgress(status.NopDisplay{})
	p.Init(total)
	p.Advance(1)
	p.Finish()

	stats := status.Sum(left, right)
	fmt.Println(stats)
*/
package status
