package metadata

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/John-Robertt/AVPM/internal/domain"
)

// nestedMaxDepth 是在 Contents 下查找内部二进制的最大深度（Contents 自身为 0）。
const nestedMaxDepth = 3

// ArchDirs 返回 Windows bundle 内与当前架构对应的子目录名，按优先级排列。
func ArchDirs(f domain.Format, goarch string) []string {
	switch f {
	case domain.FormatVST3:
		switch goarch {
		case "amd64":
			return []string{"x86_64-win"}
		case "arm64":
			return []string{"arm64-win", "arm64ec-win", "x86_64-win"}
		case "386":
			return []string{"x86-win"}
		}
	case domain.FormatAAX:
		switch goarch {
		case "amd64", "arm64":
			return []string{"x64"}
		case "386":
			return []string{"Win32"}
		}
	}
	return nil
}

// binarySuffixes 是 bundle 内部二进制可能使用的扩展名（小写）。
func binarySuffixes(f domain.Format) []string {
	switch f {
	case domain.FormatAAX:
		return []string{".aaxplugin", ".aax", ".dll"}
	default:
		return []string{".vst3", ".dll"}
	}
}

// NestedBinary 返回一个 Source：在 bundle 的 Contents 中找到内部二进制并读取其版本资源。
//
// 先看当前架构的子目录，再在 Contents 下（最多 3 层）按字典序找任意匹配的文件；
// 第一个能读出版本资源的文件即为结果。
func NestedBinary(f domain.Format, goarch string) Source {
	return func(bundle string) (Fields, error) {
		cands := nestedCandidates(bundle, f, goarch)
		if len(cands) == 0 {
			return Fields{}, errors.Errorf("%s 中没有内部二进制", bundle)
		}
		var lastErr error
		for _, c := range cands {
			fs, err := PE(c)
			if err != nil {
				lastErr = err
				continue
			}
			return fs, nil
		}
		return Fields{}, lastErr
	}
}

func nestedCandidates(bundle string, f domain.Format, goarch string) []string {
	contents := filepath.Join(bundle, "Contents")
	suffixes := binarySuffixes(f)
	seen := map[string]struct{}{}
	var out []string
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, arch := range ArchDirs(f, goarch) {
		entries, err := os.ReadDir(filepath.Join(contents, arch))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() && hasSuffixFold(e.Name(), suffixes) {
				add(filepath.Join(contents, arch, e.Name()))
			}
		}
	}

	_ = filepath.WalkDir(contents, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && p != contents {
				return fs.SkipDir
			}
			return nil
		}
		rel, rerr := filepath.Rel(contents, p)
		if rerr != nil {
			return nil
		}
		depth := 0
		if rel != "." {
			depth = strings.Count(rel, string(filepath.Separator)) + 1
		}
		if d.IsDir() {
			if depth >= nestedMaxDepth {
				return fs.SkipDir
			}
			return nil
		}
		if depth <= nestedMaxDepth && hasSuffixFold(d.Name(), suffixes) {
			add(p)
		}
		return nil
	})
	return out
}

func hasSuffixFold(name string, suffixes []string) bool {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}
