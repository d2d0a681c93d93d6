package fsx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Bios-Marcel/wastebasket/v2"
)

// Trash 把文件或目录移入当前平台的回收站，可恢复。
//
// 零值可用：默认由 wastebasket 处理（freedesktop 回收站、macOS 的 Finder、Windows 回收站）。
type Trash struct {
	// Move 覆盖实际的移入动作（测试用）。
	Move func(paths ...string) error
}

// TrashError 描述单个路径移入回收站失败。
type TrashError struct {
	Path string
	Err  error
}

func (e *TrashError) Error() string {
	return fmt.Sprintf("移入回收站失败：%q：%v", e.Path, e.Err)
}

func (e *TrashError) Unwrap() error { return e.Err }

// Trash 逐个处理 paths；单个失败不影响其余路径，全部失败以 errors.Join 合并返回。
//
// 不存在的路径记为失败：wastebasket 会静默忽略它们，调用方却需要知道。
func (t *Trash) Trash(paths []string) error {
	move := t.Move
	if move == nil {
		move = wastebasket.Trash
	}

	var errs []error
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err == nil {
			_, err = os.Lstat(abs)
		}
		if err == nil {
			err = move(abs)
		}
		if err != nil {
			errs = append(errs, &TrashError{Path: p, Err: err})
		}
	}
	return errors.Join(errs...)
}

// FailedPaths 从 Trash 返回的错误中取出失败的路径。
func FailedPaths(err error) []string {
	if err == nil {
		return nil
	}
	var out []string
	var walk func(error)
	walk = func(e error) {
		// 先展开 errors.Join，否则 errors.As 只会命中第一个。
		if j, ok := e.(interface{ Unwrap() []error }); ok {
			for _, c := range j.Unwrap() {
				walk(c)
			}
			return
		}
		var te *TrashError
		if errors.As(e, &te) {
			out = append(out, te.Path)
		}
	}
	walk(err)
	return out
}
