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

package operation

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/slimcopy/pkg/config"
	"github.com/walteh/slimcopy/pkg/info"
	"github.com/walteh/slimcopy/pkg/log"
	"github.com/walteh/slimcopy/pkg/rules"
	"github.com/walteh/slimcopy/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 🔄 Sync runs a whole copy: compile the ignore file, count the source tree,
// then walk and copy with progress drawn to display. opts must already have
// passed config.Validate.
func Sync(ctx context.Context, opts config.Options, sink log.Sink, display status.Display) (status.RunStatistics, error) {
	logger := zerolog.Ctx(ctx)

	rs, err := rules.LoadFile(afero.NewOsFs(), opts.IgnoreFile)
	if err != nil {
		return status.RunStatistics{}, errors.Errorf("loading ignore file: %w", err)
	}
	if !within(rs.Base(), opts.Source) {
		// an ignore file kept elsewhere still describes the source tree
		rs = rs.WithBase(opts.Source)
	}
	logger.Debug().Str("base", rs.Base()).Int("rules", rs.Len()).Msg("compiled ignore rules")

	counts, err := info.Collect(ctx, opts.Source, info.WithSizes(opts.MeasureSkipped))
	if err != nil {
		return status.RunStatistics{}, errors.Errorf("collecting source info: %w", err)
	}

	total, _ := counts.Lookup(opts.Source)
	progress := status.NewProgress(display)
	progress.Init(total.Files)

	walker, err := NewWalker(WalkerOptions{
		Source:      opts.Source,
		Destination: opts.Destination,
		Rules:       rs,
		Counts:      counts,
		Force:       opts.Force,
		Parallel:    opts.Parallel,
		Sink:        sink,
		Progress:    progress,
	})
	if err != nil {
		progress.Abort()
		return status.RunStatistics{}, errors.Errorf("creating walker: %w", err)
	}

	stats, err := walker.Run(ctx)
	if err != nil {
		progress.Abort()
		return status.RunStatistics{}, errors.Errorf("copying %s: %w", opts.Source, err)
	}
	progress.Finish()

	logger.Debug().
		Uint64("copied", stats.Copied).
		Uint64("copied_bytes", stats.CopiedBytes).
		Uint64("not_modified", stats.NotModified).
		Uint64("skipped", stats.Skipped).
		Uint64("symlinks", stats.Symlinks).
		Msg("sync complete")

	return stats, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
