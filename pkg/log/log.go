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

package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🎨 Display configuration
const (
	lineIndent = 2 // spaces before the decision symbol on the console
)

// 📝 Sink receives one human readable line per walk decision
type Sink interface {
	Add(msg string)
}

type sinkKind string

const (
	kindMuted   sinkKind = "muted"
	kindConsole sinkKind = "console"
	kindFile    sinkKind = "file"
)

// 🎯 Logger is the Sink used by the walk. Every line is mirrored to zerolog
// at debug level, so a muted logger still leaves a trace with --debug.
type Logger struct {
	zlog   zerolog.Logger
	kind   sinkKind
	out    io.Writer
	closer io.Closer
	mu     sync.Mutex
}

// 🔇 Muted creates a logger that writes nowhere
func Muted(ctx context.Context) *Logger {
	return &Logger{zlog: *zerolog.Ctx(ctx), kind: kindMuted}
}

// 🖥️ NewConsole creates a logger writing colored lines to console
func NewConsole(ctx context.Context, console io.Writer) *Logger {
	return &Logger{zlog: *zerolog.Ctx(ctx), kind: kindConsole, out: console}
}

// 📄 NewFile creates (or truncates) path and writes plain lines to it
func NewFile(ctx context.Context, path string) (*Logger, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Errorf("creating log file: %w", err)
	}
	return &Logger{zlog: *zerolog.Ctx(ctx), kind: kindFile, out: f, closer: f}, nil
}

// Add writes one line. Write failures are dropped, the sink is fire and forget.
func (l *Logger) Add(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.kind {
	case kindConsole:
		fmt.Fprintln(l.out, formatConsoleLine(msg))
	case kindFile:
		fmt.Fprintln(l.out, msg)
	}

	l.zlog.Debug().Str("sink", string(l.kind)).Msg(msg)
}

// Addf formats and writes one line
func (l *Logger) Addf(format string, args ...interface{}) {
	l.Add(fmt.Sprintf(format, args...))
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	l.kind = kindMuted
	if err != nil {
		return errors.Errorf("closing log file: %w", err)
	}
	return nil
}

// 📝 formatConsoleLine prefixes a decision line with a colored symbol
func formatConsoleLine(msg string) string {
	var symbol string
	switch {
	case strings.HasPrefix(msg, "Copy "):
		symbol = color.GreenString("✓")
	case strings.HasPrefix(msg, "Old "):
		symbol = color.New(color.Faint).Sprint("•")
	case strings.HasPrefix(msg, "Skip "):
		symbol = color.YellowString("-")
	default:
		symbol = color.CyanString("ℹ")
	}
	return fmt.Sprintf("%s%s %s", strings.Repeat(" ", lineIndent), symbol, msg)
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}
