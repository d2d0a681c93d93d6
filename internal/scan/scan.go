// Package scan 遍历候选根目录，按格式规则识别插件条目。
package scan

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/AVPM/internal/domain"
)

// DefaultMaxDepth 是默认的最大遍历深度（根目录的直接子项为 1）。
const DefaultMaxDepth = 5

// Rules 是识别条目所需的平台差异；platform.Profile 满足该接口。
type Rules interface {
	IsBundleStyle(f domain.Format) bool
	FlatSuffixes(f domain.Format) []string
	IsSystemLibrary(name string) bool
}

// Options 控制一次遍历。
type Options struct {
	// MaxDepth <= 0 时使用 DefaultMaxDepth。
	MaxDepth int
	// ExcludeDirs 为相对 root 的路径（绝对路径按绝对路径处理），命中的子树整体跳过。
	ExcludeDirs []string
	// OnSkip 在某个条目因遍历错误被跳过时调用（权限不足、断开的符号链接等）；可为 nil。
	OnSkip func(path string, err error)
}

// Entry 是一个被接受的条目。
// Path 保持遍历得到的原样（符号链接不解析）；IsDir 反映链接目标的形态。
type Entry struct {
	Path  string
	IsDir bool
}

// Detect 惰性地产出 root 下属于格式 f 的条目。
//
// 规则（硬约束）：
// - 超过最大深度的条目永不识别
// - 单个条目的错误只跳过该条目，不会中止整个遍历
// - 被接受的目录（bundle）不再向下遍历
// - 符号链接按目标形态识别，但不会跟随进入
// - 根目录本身不参与识别；根是指向目录的符号链接时遍历其目标，
//   产出路径仍以链接路径为前缀
//
// root 不存在或不可读时序列为空；调用方负责事先检查根目录。
func Detect(root string, f domain.Format, rules Rules, opts Options) iter.Seq[Entry] {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	skip := opts.OnSkip
	if skip == nil {
		skip = func(string, error) {}
	}

	return func(yield func(Entry) bool) {
		root := filepath.Clean(root)
		excluded := buildExcluded(root, opts.ExcludeDirs)
		walkRoot := resolveRoot(root)

		_ = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				if path == walkRoot && d == nil {
					return filepath.SkipAll
				}
				skip(path, walkErr)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if path == walkRoot {
				return nil
			}

			if isExcluded(path, excluded) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			depth := depthOf(root, path)
			if depth > maxDepth {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			isDir := d.IsDir()
			if d.Type()&fs.ModeSymlink != 0 {
				info, err := os.Stat(path)
				if err != nil {
					skip(path, err)
					return nil
				}
				isDir = info.IsDir()
			}

			if Accept(rules, f, d.Name(), isDir) {
				if !yield(Entry{Path: path, IsDir: isDir}) {
					return filepath.SkipAll
				}
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() && depth == maxDepth {
				return filepath.SkipDir
			}
			return nil
		})
	}
}

// resolveRoot 在 root 是指向目录的符号链接时追加路径分隔符，
// 使 WalkDir 跟随这一层链接；子路径经 filepath.Join 清理后仍挂在 root 下。
func resolveRoot(root string) string {
	li, err := os.Lstat(root)
	if err != nil || li.Mode()&fs.ModeSymlink == 0 {
		return root
	}
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		return root
	}
	return root + string(filepath.Separator)
}

// Collect 把 Detect 的结果收集为切片（按遍历顺序，即字典序）。
func Collect(seq iter.Seq[Entry]) []Entry {
	var out []Entry
	for e := range seq {
		out = append(out, e)
	}
	return out
}

// Accept 判断名为 name 的条目是否属于格式 f。扩展名比较一律大小写不敏感。
func Accept(rules Rules, f domain.Format, name string, isDir bool) bool {
	ext := strings.ToLower(filepath.Ext(name))
	switch f {
	case domain.FormatVST2:
		if rules.IsBundleStyle(f) {
			return isDir && ext == ".vst"
		}
		return !isDir && hasSuffix(name, rules.FlatSuffixes(f)) && !rules.IsSystemLibrary(name)
	case domain.FormatVST3:
		return ext == ".vst3"
	case domain.FormatAAX:
		if isDir {
			return rules.IsBundleStyle(f) && ext == ".aaxplugin"
		}
		return hasSuffix(name, rules.FlatSuffixes(f))
	case domain.FormatAU:
		return isDir && rules.IsBundleStyle(f) && ext == ".component"
	default:
		return false
	}
}

func hasSuffix(name string, suffixes []string) bool {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if s != "" && strings.HasSuffix(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

func depthOf(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func buildExcluded(root string, excludeDirs []string) []string {
	excluded := make([]string, 0, len(excludeDirs))
	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			excluded = append(excluded, filepath.Clean(x))
			continue
		}
		// x 是相对路径：相对 root。
		excluded = append(excluded, filepath.Clean(filepath.Join(root, x)))
	}

	sort.Strings(excluded)
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if isUnder(path, base) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}
