// Package platform 描述各操作系统上插件的安装位置、打包形态与元数据来源。
//
// 每个 OS 一个 Profile；核心流程只依赖 Profile 接口，因此任意 Profile 都能在任意宿主上测试。
package platform

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/John-Robertt/AVPM/internal/domain"
	"github.com/John-Robertt/AVPM/internal/metadata"
)

// ErrNoRegistry 表示当前宿主没有注册表（非 Windows）。
var ErrNoRegistry = errors.New("platform: registry not available")

// Registry 读取 HKEY_LOCAL_MACHINE 下的字符串值。
type Registry interface {
	LocalMachineString(key, value string) (string, error)
}

// Env 是 Profile 依赖的宿主环境；测试中可整体替换。
type Env struct {
	Getenv   func(string) string
	HomeDir  func() (string, error)
	Registry Registry
	GOARCH   string
}

// HostEnv 返回真实宿主环境。
func HostEnv() Env {
	return Env{
		Getenv:   os.Getenv,
		HomeDir:  os.UserHomeDir,
		Registry: SystemRegistry(),
		GOARCH:   runtime.GOARCH,
	}
}

func (e Env) getenv(k string) string {
	if e.Getenv == nil {
		return ""
	}
	return strings.TrimSpace(e.Getenv(k))
}

func (e Env) home() string {
	if e.HomeDir == nil {
		return ""
	}
	h, err := e.HomeDir()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(h)
}

func (e Env) registryString(key, value string) string {
	if e.Registry == nil {
		return ""
	}
	s, err := e.Registry.LocalMachineString(key, value)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

// Profile 是一个平台的全部差异点。
type Profile interface {
	// Name 返回平台名（与 GOOS 一致）。
	Name() string
	// CandidateRoots 返回某格式的候选根目录；不保证存在，也可能重复。
	CandidateRoots(f domain.Format) []string
	// IsBundleStyle 表示该格式在此平台上是否以目录 bundle 的形式出现。
	IsBundleStyle(f domain.Format) bool
	// FlatSuffixes 返回该格式的单文件扩展名（小写，带点）；没有时返回 nil。
	FlatSuffixes(f domain.Format) []string
	// IsSystemLibrary 判断单文件是否是混在插件目录里的系统库。
	IsSystemLibrary(name string) bool
	// Sources 返回已接受条目的元数据来源，按优先级排列。
	Sources(f domain.Format, isDir bool) []metadata.Source
	// FoldCase 表示路径比较是否大小写不敏感。
	FoldCase() bool
}

// Current 按 runtime.GOOS 选择 Profile。
func Current() Profile {
	return ForOS(runtime.GOOS, HostEnv())
}

// ForOS 返回指定 OS 的 Profile；未知 OS 按 Linux 处理。
func ForOS(goos string, env Env) Profile {
	switch goos {
	case "darwin":
		return Darwin{Env: env}
	case "windows":
		return Windows{Env: env}
	default:
		return Linux{Env: env}
	}
}

// Resolve 合并平台候选根目录与额外目录，按清理后的路径去重（Windows 上大小写不敏感）。
// 空串被忽略；顺序为首次出现的顺序。
func Resolve(p Profile, f domain.Format, extra []string) []string {
	all := append(append([]string(nil), p.CandidateRoots(f)...), extra...)
	seen := make(map[string]struct{}, len(all))
	out := make([]string, 0, len(all))
	for _, r := range all {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		r = cleanFor(p, r)
		k := r
		if p.FoldCase() {
			k = strings.ToLower(strings.ReplaceAll(r, "/", `\`))
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

func cleanFor(p Profile, r string) string {
	if p.FoldCase() {
		return winClean(r)
	}
	return filepath.Clean(r)
}

// splitList 按 sep 拆分环境变量中的路径列表，忽略空段。
func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func hasPrefixAny(name string, prefixes []string) bool {
	lower := strings.ToLower(name)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}
