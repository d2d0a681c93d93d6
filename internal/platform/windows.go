package platform

import (
	"strings"

	"github.com/John-Robertt/AVPM/internal/domain"
	"github.com/John-Robertt/AVPM/internal/metadata"
)

// 与插件一起出现在 VstPlugins 等目录里的系统/运行库 DLL 前缀（小写）。
var windowsSystemDLLPrefixes = []string{
	"msvcr", "msvcp", "vcruntime", "api-ms-",
	"kernel32", "user32", "shell32", "ole32", "oleaut32",
	"comctl32", "comdlg32", "gdi32", "advapi32",
	"winmm", "wsock32", "ws2_32", "version", "shlwapi",
}

// 注册表中登记的插件目录。
var (
	regVST      = [2]string{`SOFTWARE\VST`, "VSTPluginsPath"}
	regVSTWow64 = [2]string{`SOFTWARE\WOW6432Node\VST`, "VSTPluginsPath"}
	regAvidAAX  = [2]string{`SOFTWARE\Avid\Audio\Plug-Ins`, "InstallDir"}
)

var (
	fixedPFRoots = []string{`C:\Program Files`, `C:\Program Files (x86)`}
	programEnvs  = []string{"ProgramW6432", "ProgramFiles", "ProgramFiles(x86)"}
	commonEnvs   = []string{"CommonProgramW6432", "CommonProgramFiles", "CommonProgramFiles(x86)"}
)

const commonFilesDir = "Common Files"

// Windows：VST2 是单个 DLL；VST3 可以是单文件或 bundle；AAX 以 .aaxplugin bundle 为主，也接受 .aax 单文件。
type Windows struct {
	Env Env
}

func (Windows) Name() string { return "windows" }

func (w Windows) CandidateRoots(f domain.Format) []string {
	var out []string
	programFiles := w.programFiles()
	common := w.commonFiles()

	switch f {
	case domain.FormatVST2:
		for _, pf := range programFiles {
			out = append(out,
				winJoin(pf, "VstPlugins"),
				winJoin(pf, "Steinberg", "VstPlugins"),
				winJoin(pf, commonFilesDir, "VST2"),
			)
		}
		for _, c := range common {
			out = append(out, winJoin(c, "VST2"))
		}
		for _, pf := range fixedPFRoots {
			out = append(out, winJoin(pf, commonFilesDir, "VST2"))
		}
		out = appendNonEmpty(out, w.Env.registryString(regVST[0], regVST[1]))
		out = appendNonEmpty(out, w.Env.registryString(regVSTWow64[0], regVSTWow64[1]))
	case domain.FormatVST3:
		for _, pf := range programFiles {
			out = append(out, winJoin(pf, commonFilesDir, "VST3"))
		}
		for _, c := range common {
			out = append(out, winJoin(c, "VST3"))
		}
		for _, pf := range fixedPFRoots {
			out = append(out, winJoin(pf, commonFilesDir, "VST3"))
		}
	case domain.FormatAAX:
		for _, pf := range programFiles {
			out = append(out, winJoin(pf, commonFilesDir, "Avid", "Audio", "Plug-Ins"))
		}
		for _, c := range common {
			out = append(out, winJoin(c, "Avid", "Audio", "Plug-Ins"))
		}
		for _, pf := range fixedPFRoots {
			out = append(out, winJoin(pf, commonFilesDir, "Avid", "Audio", "Plug-Ins"))
		}
		out = appendNonEmpty(out, w.Env.registryString(regAvidAAX[0], regAvidAAX[1]))
	}
	return out
}

func (w Windows) programFiles() []string {
	var out []string
	for _, k := range programEnvs {
		out = appendNonEmpty(out, w.Env.getenv(k))
	}
	return out
}

func (w Windows) commonFiles() []string {
	var out []string
	for _, k := range commonEnvs {
		out = appendNonEmpty(out, w.Env.getenv(k))
	}
	return out
}

func (Windows) IsBundleStyle(f domain.Format) bool {
	return f == domain.FormatVST3 || f == domain.FormatAAX
}

func (Windows) FlatSuffixes(f domain.Format) []string {
	switch f {
	case domain.FormatVST2:
		return []string{".dll"}
	case domain.FormatAAX:
		return []string{".aax"}
	}
	return nil
}

func (Windows) IsSystemLibrary(name string) bool {
	return hasPrefixAny(name, windowsSystemDLLPrefixes)
}

func (w Windows) Sources(f domain.Format, isDir bool) []metadata.Source {
	if !isDir {
		return []metadata.Source{metadata.PE}
	}
	switch f {
	case domain.FormatVST3:
		return []metadata.Source{metadata.Sidecar, metadata.NestedBinary(f, w.Env.GOARCH)}
	case domain.FormatAAX:
		return []metadata.Source{metadata.NestedBinary(f, w.Env.GOARCH)}
	}
	return nil
}

func (Windows) FoldCase() bool { return true }

// winJoin 用反斜杠拼接 Windows 路径，与宿主 OS 无关。
func winJoin(elem ...string) string {
	parts := make([]string, 0, len(elem))
	for i, e := range elem {
		e = strings.ReplaceAll(e, "/", `\`)
		if i > 0 {
			e = strings.TrimLeft(e, `\`)
		}
		e = strings.TrimRight(e, `\`)
		if e == "" {
			continue
		}
		parts = append(parts, e)
	}
	return strings.Join(parts, `\`)
}

// winClean 统一分隔符并去掉重复与结尾的反斜杠（保留 UNC 前缀与盘符根）。
func winClean(p string) string {
	p = strings.ReplaceAll(p, "/", `\`)
	prefix := ""
	if strings.HasPrefix(p, `\\`) {
		prefix, p = `\\`, p[2:]
	}
	for strings.Contains(p, `\\`) {
		p = strings.ReplaceAll(p, `\\`, `\`)
	}
	if len(p) > 1 && !(len(p) == 3 && p[1] == ':') {
		p = strings.TrimRight(p, `\`)
	}
	return prefix + p
}

func appendNonEmpty(out []string, s string) []string {
	if s == "" {
		return out
	}
	return append(out, s)
}
