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
Package rules compiles gitignore style ignore files and classifies paths
against them.

Each non-blank line that does not start with # is one rule:

	*.tmp          ignore every .tmp file, at any depth
	!keep.tmp      but not keep.tmp
	/build/        only the build directory at the root
	\#notes        a file literally named #notes

The last rule that matches decides. A directory that is ignored is never
entered, so a negated rule cannot bring back a path under it.
*/
package rules
