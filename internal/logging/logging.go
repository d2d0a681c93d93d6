// Package logging 构造 avpm 使用的 zerolog 日志器。
//
// 日志只写 stderr：stdout 留给机器可读的结果文档。
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"

	DefaultLevel = "warn"
)

// Levels 是 --log-level 可接受的取值。
var Levels = []string{"debug", "info", "warn", "error"}

// New 按级别与格式创建日志器；w 为 nil 时写 stderr。
func New(level, format string, w io.Writer) (zerolog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := parseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: !isTerminal(w)}
	case FormatJSON:
	default:
		return zerolog.Nop(), fmt.Errorf("未知的日志格式 %q（可选：json|console）", format)
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

func parseLevel(level string) (zerolog.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		level = DefaultLevel
	}
	for _, l := range Levels {
		if l == level {
			return zerolog.ParseLevel(level)
		}
	}
	return zerolog.NoLevel, fmt.Errorf("未知的日志级别 %q（可选：%s）", level, strings.Join(Levels, "|"))
}

// WithContext 把日志器放进 ctx，供下游通过 FromContext 取回。
func WithContext(ctx context.Context, l zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}

// FromContext 取出 ctx 中的日志器；没有时得到禁用的日志器。
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return zerolog.Ctx(ctx)
}

type fdWriter interface {
	Fd() uintptr
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(fdWriter)
	return ok && term.IsTerminal(int(f.Fd()))
}
