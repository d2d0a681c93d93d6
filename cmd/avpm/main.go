// Command avpm 扫描本机安装的音频插件（VST2/VST3/AAX/AU），按厂商归并，并可把选中的插件移到回收站。
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/term"

	"github.com/John-Robertt/AVPM/internal/app/manager"
	"github.com/John-Robertt/AVPM/internal/infra/fsx"
	"github.com/John-Robertt/AVPM/internal/platform"
)

// 退出码：0 成功；1 运行失败（扫描失败、删除未完全成功等）；2 用法错误。
const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	exitAborted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], hostDeps())
	stop()
	os.Exit(code)
}

// deps 是 CLI 对外部环境的全部依赖；测试替换为临时目录与假的回收站。
type deps struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	profile       platform.Profile
	trasher       manager.Trasher
	cwd           string
	userConfigDir string
}

func hostDeps() deps {
	cwd, _ := os.Getwd()
	ucd, _ := os.UserConfigDir()
	return deps{
		in:            os.Stdin,
		out:           os.Stdout,
		errOut:        os.Stderr,
		profile:       platform.Current(),
		trasher:       &fsx.Trash{},
		cwd:           cwd,
		userConfigDir: ucd,
	}
}

// exitError 携带退出码；消息已经输出过时 silent 为 true。
type exitError struct {
	code   int
	err    error
	silent bool
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func usageErr(format string, args ...any) error {
	return &exitError{code: exitUsage, err: fmt.Errorf(format, args...)}
}

func failed(err error) error { return &exitError{code: exitFailed, err: err} }

func silentExit(code int) error { return &exitError{code: code, silent: true} }

func execute(ctx context.Context, args []string, d deps) int {
	cmd := newRootCmd(d)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	code := exitFailed
	if strings.HasPrefix(err.Error(), "unknown command") {
		code = exitUsage
	}
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.code
		if ee.silent {
			return code
		}
	}
	if errors.Is(err, context.Canceled) {
		code = exitAborted
	}
	fmt.Fprintf(d.errOut, "错误：%v\n", err)
	return code
}

type fdWriter interface {
	Fd() uintptr
}

// isTTY 只对真实终端返回 true；管道、文件与测试用的 buffer 都视为非交互。
func isTTY(v any) bool {
	f, ok := v.(fdWriter)
	return ok && term.IsTerminal(int(f.Fd()))
}
