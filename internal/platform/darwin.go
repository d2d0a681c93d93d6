package platform

import (
	"path"

	"github.com/John-Robertt/AVPM/internal/domain"
	"github.com/John-Robertt/AVPM/internal/metadata"
)

// Darwin 是 macOS：所有格式都是 bundle，元数据来自 Info.plist。
type Darwin struct {
	Env Env
}

func (Darwin) Name() string { return "darwin" }

func (d Darwin) CandidateRoots(f domain.Format) []string {
	var rel []string
	switch f {
	case domain.FormatVST2:
		rel = []string{"Library/Audio/Plug-Ins/VST"}
	case domain.FormatVST3:
		rel = []string{"Library/Audio/Plug-Ins/VST3"}
	case domain.FormatAAX:
		rel = []string{"Library/Application Support/Avid/Audio/Plug-Ins"}
	case domain.FormatAU:
		rel = []string{"Library/Audio/Plug-Ins/Components"}
	}
	home := d.Env.home()
	var out []string
	for _, r := range rel {
		out = append(out, path.Join("/", r))
		if home != "" {
			out = append(out, path.Join(home, r))
		}
	}
	return out
}

func (Darwin) IsBundleStyle(domain.Format) bool { return true }

func (Darwin) FlatSuffixes(domain.Format) []string { return nil }

func (Darwin) IsSystemLibrary(string) bool { return false }

func (Darwin) Sources(domain.Format, bool) []metadata.Source {
	return []metadata.Source{metadata.Plist, metadata.Sidecar}
}

func (Darwin) FoldCase() bool { return false }
