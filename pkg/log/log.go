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
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	entryIndent  = 4  // spaces to indent entries
	idWidth      = 24 // width for provider ids
	nameWidth    = 32 // width for display names
	marketsWidth = 12 // width for the market list
	typeWidth    = 8  // width for the card type
)

// 🎯 ProviderLine is one catalog entry for display
type ProviderLine struct {
	ID      string   // provider id
	Name    string   // display name
	Markets []string // country codes
	Rank    string   // search rank, empty when not searching
	HasLogo bool     // whether an embedded logo is available
}

// 💳 CardLine is one imported or stored card for display
type CardLine struct {
	ID       int64  // local id, negative when unsaved
	Name     string // display name
	Type     string // barcode, qr or auto
	Provider string // provider id, empty for custom cards
	HasLogo  bool   // whether an embedded logo is available
	Saved    bool   // whether the card was just written to the store
}

// 📦 Section is a titled group of entries
type Section struct {
	Title  string // e.g. "catalog"
	Detail string // e.g. the market code
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	current *Section
	entries int
}

// 🏭 New creates a new logger; zlog receives a structured copy of every console line
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
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

func logoMark(has bool) string {
	if has {
		return "🖼️"
	}
	return ""
}

// 📝 formatProvider formats a catalog entry for display
func (l *Logger) formatProvider(p ProviderLine) string {
	symbol := color.New(color.FgCyan).Sprint("•")
	if p.Rank != "" {
		symbol = color.New(color.FgGreen).Sprint("✓")
	}

	line := fmt.Sprintf("%s%s %s %-*s %s %s %s",
		strings.Repeat(" ", entryIndent),
		symbol,
		color.New(color.Bold).Sprint(fmt.Sprintf("%-*s", idWidth, p.ID)),
		nameWidth, p.Name,
		color.New(color.FgYellow).Sprint(fmt.Sprintf("%-*s", marketsWidth, strings.Join(p.Markets, ","))),
		color.New(color.Faint).Sprint(p.Rank),
		logoMark(p.HasLogo))
	return strings.TrimRight(line, " ")
}

// 📝 formatCard formats a card for display
func (l *Logger) formatCard(c CardLine) string {
	var symbol string
	switch {
	case c.Saved:
		symbol = color.New(color.FgGreen).Sprint("✓")
	case c.Provider == "":
		symbol = color.New(color.FgYellow).Sprint("-")
	default:
		symbol = color.New(color.FgCyan).Sprint("•")
	}

	id := "new"
	if c.ID >= 0 {
		id = fmt.Sprintf("#%d", c.ID)
	}

	var typeColor color.Attribute
	switch c.Type {
	case "qr":
		typeColor = color.FgMagenta
	default:
		typeColor = color.FgBlue
	}

	line := fmt.Sprintf("%s%s %-5s %-*s %s %s %s",
		strings.Repeat(" ", entryIndent),
		symbol,
		id,
		nameWidth, c.Name,
		color.New(typeColor).Sprint(fmt.Sprintf("%-*s", typeWidth, c.Type)),
		c.Provider,
		logoMark(c.HasLogo))
	return strings.TrimRight(line, " ")
}

// 📝 LogProvider prints a catalog entry
func (l *Logger) LogProvider(ctx context.Context, p ProviderLine) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries++
	fmt.Fprintln(l.console, l.formatProvider(p))

	l.zlog.Debug().
		Str("provider", p.ID).
		Str("name", p.Name).
		Strs("markets", p.Markets).
		Str("rank", p.Rank).
		Bool("has_logo", p.HasLogo).
		Msg("provider")
}

// 📝 LogCard prints a card
func (l *Logger) LogCard(ctx context.Context, c CardLine) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries++
	fmt.Fprintln(l.console, l.formatCard(c))

	l.zlog.Debug().
		Int64("id", c.ID).
		Str("name", c.Name).
		Str("type", c.Type).
		Str("provider", c.Provider).
		Bool("saved", c.Saved).
		Msg("card")
}

// 📝 StartSection prints a section header
func (l *Logger) StartSection(ctx context.Context, s Section) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.current = &s
	l.entries = 0

	if s.Detail == "" {
		fmt.Fprintf(l.console, "%s %s\n",
			color.New(color.FgMagenta).Sprint("◆"),
			color.New(color.Bold).Sprint(s.Title))
	} else {
		fmt.Fprintf(l.console, "%s %s %s %s\n",
			color.New(color.FgMagenta).Sprint("◆"),
			color.New(color.Bold).Sprint(s.Title),
			color.New(color.Faint).Sprint("•"),
			color.New(color.FgYellow).Sprint(s.Detail))
	}

	l.zlog.Info().Str("section", s.Title).Str("detail", s.Detail).Msg("section started")
}

// 📝 EndSection closes the current section and returns how many entries it printed
func (l *Logger) EndSection(ctx context.Context) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return 0
	}

	n := l.entries
	l.zlog.Info().Str("section", l.current.Title).Int("entries", n).Msg("section complete")

	l.current = nil
	l.entries = 0
	return n
}

// 📝 Line prints a preformatted line
func (l *Logger) Line(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console, s)
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("loyalty")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
