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
Package operation copies a source tree into a destination tree.

	+-------------+
	|    Sync     |
	| (orchestr.) |
	+------+------+
	       |
	+------+------+------------+
	|             |            |
	+-----+----+  +----+----+  +----+-----+
	|  rules   |  |  info   |  |  Walker  |
	| (ignore) |  | (count) |  | (copy)   |
	+----------+  +---------+  +----+-----+
	                                |
	                          +-----+-----+
	                          |  status   |
	                          | (tallies) |
	                          +-----------+

🔄 Flow:
1. Compile the ignore file into a rule set
2. Count files under every source directory
3. Walk the source. Ignored directories are tallied from the counts and never
   entered. Symbolic links are reported and left alone.
4. Copy a regular file only when it is newer than its destination, or always
   when forced. Read-only destinations are made writable first.

Copies land through a temp file and rename, keeping the source mtime, so a
second run over an unchanged tree copies nothing.

The first failure stops the run.
*/
package operation
