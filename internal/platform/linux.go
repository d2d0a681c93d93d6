package platform

import (
	"path"

	"github.com/John-Robertt/AVPM/internal/domain"
	"github.com/John-Robertt/AVPM/internal/metadata"
)

var linuxSystemLibPrefixes = []string{
	"libc.", "libm.", "libdl.", "libpthread", "libstdc++", "libgcc_s", "ld-linux",
}

// Linux：VST2 是 .so 单文件，VST3 为 bundle；没有 AAX 与 AU。
// 环境变量 VST_PATH / LXVST_PATH / VST3_PATH 充当注册表的角色。
type Linux struct {
	Env Env
}

func (Linux) Name() string { return "linux" }

func (l Linux) CandidateRoots(f domain.Format) []string {
	var home, sys, envs []string
	switch f {
	case domain.FormatVST2:
		home = []string{".vst", ".lxvst"}
		sys = []string{"/usr/lib/vst", "/usr/local/lib/vst", "/usr/lib/lxvst", "/usr/local/lib/lxvst"}
		envs = []string{"VST_PATH", "LXVST_PATH"}
	case domain.FormatVST3:
		home = []string{".vst3"}
		sys = []string{"/usr/lib/vst3", "/usr/local/lib/vst3"}
		envs = []string{"VST3_PATH"}
	default:
		return nil
	}

	var out []string
	if h := l.Env.home(); h != "" {
		for _, d := range home {
			out = append(out, path.Join(h, d))
		}
	}
	out = append(out, sys...)
	for _, k := range envs {
		out = append(out, splitList(l.Env.getenv(k), ":")...)
	}
	return out
}

func (Linux) IsBundleStyle(f domain.Format) bool { return f == domain.FormatVST3 }

func (Linux) FlatSuffixes(f domain.Format) []string {
	if f == domain.FormatVST2 {
		return []string{".so"}
	}
	return nil
}

func (Linux) IsSystemLibrary(name string) bool {
	return hasPrefixAny(name, linuxSystemLibPrefixes)
}

func (Linux) Sources(f domain.Format, isDir bool) []metadata.Source {
	if f == domain.FormatVST3 && isDir {
		return []metadata.Source{metadata.Sidecar}
	}
	return nil
}

func (Linux) FoldCase() bool { return false }
